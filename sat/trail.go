package sat

// Reserved assignment types for AssignmentInfo.Type. Non-negative values are
// ids of registered propagators; the reserved values below describe facts
// that carry their own justification.
const (
	// AssignmentTypeUnitReason marks a literal true by a unit clause (or a
	// root-level fact already justified to the proof sink).
	AssignmentTypeUnitReason int32 = -1

	// AssignmentTypeSearchDecision marks a branching decision.
	AssignmentTypeSearchDecision int32 = -2

	// AssignmentTypeCachedReason marks a literal whose reason was computed
	// once and cached on the trail.
	AssignmentTypeCachedReason int32 = -3

	// AssignmentTypeSameReasonAs marks a literal sharing another trail
	// entry's reason.
	AssignmentTypeSameReasonAs int32 = -4
)

// AssignmentInfo describes one variable assignment: at which decision level
// it happened, where it sits on the trail, and which propagator implied it.
type AssignmentInfo struct {
	Level      int32
	TrailIndex int32
	Type       int32
}

// ReasonServer is implemented by propagators that can explain their
// propagations. The returned slice is the clause literals minus the
// propagated one, i.e. the literals whose conjunction of negations implied
// the assignment. It is only valid until the next propagation.
type ReasonServer interface {
	Reason(trail *Trail, trailIndex int) []Literal
}

// Trail is the append-only sequence of literals in assignment order, plus
// per-variable assignment info and the conflict slot. Untrailing reverts the
// assignment bits and shrinks the sequence; infos are left in place and are
// overwritten on the next enqueue of the same variable.
type Trail struct {
	assignment *Assignment
	literals   []Literal
	info       []AssignmentInfo // indexed by variable

	currentLevel int32
	levelStarts  []int // trail index at which each level began

	conflict      []Literal
	failingClause *Clause
	reasonServers []ReasonServer
	sameReasonAs  map[int]int32 // trail index -> trail index whose reason is shared
	numEnqueues   int64
	numUntrailed  int64
	chronological bool
}

// NewTrail creates a trail sized for numVars variables at level 0.
func NewTrail(numVars int) *Trail {
	t := &Trail{
		assignment: NewAssignment(numVars),
		info:       make([]AssignmentInfo, numVars),
	}

	return t
}

// Resize grows the trail to numVars variables.
func (t *Trail) Resize(numVars int) {
	t.assignment.Resize(numVars)
	for len(t.info) < numVars {
		t.info = append(t.info, AssignmentInfo{})
	}
}

// RegisterPropagator gives server a dense id used in AssignmentInfo.Type and
// returns it.
func (t *Trail) RegisterPropagator(server ReasonServer) int32 {
	t.reasonServers = append(t.reasonServers, server)

	return int32(len(t.reasonServers) - 1)
}

// EnableChronologicalBacktracking sets a flag that callers can query. The
// trail and the propagators in this package do not read it: clause
// propagation always enqueues at the maximum level of the reason.
func (t *Trail) EnableChronologicalBacktracking(on bool) { t.chronological = on }

// ChronologicalBacktrackingEnabled reports the flag set above.
func (t *Trail) ChronologicalBacktrackingEnabled() bool { return t.chronological }

// Assignment exposes the current variable values.
func (t *Trail) Assignment() *Assignment { return t.assignment }

// Index returns the trail length, the decision frontier.
func (t *Trail) Index() int { return len(t.literals) }

// Literal returns the i-th assigned literal in assignment order.
func (t *Trail) Literal(i int) Literal { return t.literals[i] }

// CurrentDecisionLevel returns the number of open decisions.
func (t *Trail) CurrentDecisionLevel() int { return int(t.currentLevel) }

// Info returns the assignment info of v. Only meaningful while v is
// assigned.
func (t *Trail) Info(v BooleanVariable) AssignmentInfo { return t.info[v] }

// AssignmentLevel returns the level at which l's variable was assigned.
func (t *Trail) AssignmentLevel(l Literal) int { return int(t.info[l.Variable()].Level) }

// NewDecisionLevel opens a new level.
func (t *Trail) NewDecisionLevel() {
	t.currentLevel++
	t.levelStarts = append(t.levelStarts, len(t.literals))
}

// EnqueueSearchDecision assigns l true as a branching decision at a new
// level.
func (t *Trail) EnqueueSearchDecision(l Literal) {
	t.NewDecisionLevel()
	t.enqueue(l, AssignmentTypeSearchDecision, t.currentLevel)
}

// Enqueue assigns l true at the current level, implied by the propagator
// with the given id (or one of the reserved assignment types).
func (t *Trail) Enqueue(l Literal, typ int32) {
	t.enqueue(l, typ, t.currentLevel)
}

// EnqueueAtLevel assigns l true at an explicit (possibly lower) level, for
// chronological backtracking.
func (t *Trail) EnqueueAtLevel(l Literal, typ int32, level int) {
	t.enqueue(l, typ, int32(level))
}

// EnqueueWithUnitReason assigns l true at level 0 with a unit reason.
func (t *Trail) EnqueueWithUnitReason(l Literal) {
	t.enqueue(l, AssignmentTypeUnitReason, 0)
}

// EnqueueWithSameReasonAs assigns l true sharing the reason of the literal
// already enqueued at refTrailIndex.
func (t *Trail) EnqueueWithSameReasonAs(l Literal, refTrailIndex int) {
	if t.sameReasonAs == nil {
		t.sameReasonAs = make(map[int]int32)
	}
	t.sameReasonAs[len(t.literals)] = int32(refTrailIndex)
	t.enqueue(l, AssignmentTypeSameReasonAs, t.info[t.literals[refTrailIndex].Variable()].Level)
}

func (t *Trail) enqueue(l Literal, typ int32, level int32) {
	if t.assignment.LiteralIsAssigned(l) {
		panic("sat: enqueue of an already assigned literal")
	}
	t.assignment.assignLiteral(l)
	t.info[l.Variable()] = AssignmentInfo{
		Level:      level,
		TrailIndex: int32(len(t.literals)),
		Type:       typ,
	}
	t.literals = append(t.literals, l)
	t.numEnqueues++
}

// SetConflict records the clause whose literals are all false. The slice is
// copied.
func (t *Trail) SetConflict(lits []Literal) {
	t.conflict = append(t.conflict[:0], lits...)
}

// SetFailingClause remembers the heap clause behind the current conflict,
// if any.
func (t *Trail) SetFailingClause(c *Clause) { t.failingClause = c }

// Conflict returns the literals of the most recent conflict.
func (t *Trail) Conflict() []Literal { return t.conflict }

// FailingClause returns the heap clause behind the most recent conflict, or
// nil for binary/at-most-one conflicts.
func (t *Trail) FailingClause() *Clause { return t.failingClause }

// Reason returns the reason of the literal at the given trail index: the
// literals whose falsity implied it. Returns nil for decisions and unit
// facts.
func (t *Trail) Reason(trailIndex int) []Literal {
	info := t.info[t.literals[trailIndex].Variable()]
	switch {
	case info.Type >= 0:
		return t.reasonServers[info.Type].Reason(t, trailIndex)
	case info.Type == AssignmentTypeSameReasonAs:
		return t.Reason(int(t.sameReasonAs[trailIndex]))
	default:
		return nil
	}
}

// Untrail unassigns every literal at or past target, leaving infos in place.
func (t *Trail) Untrail(target int) {
	for i := len(t.literals) - 1; i >= target; i-- {
		t.assignment.unassignLiteral(t.literals[i])
		t.numUntrailed++
	}
	t.literals = t.literals[:target]
}

// BacktrackToLevel reverts to the state just before the given level was
// opened. Level 0 facts are never untrailed.
func (t *Trail) BacktrackToLevel(level int) {
	if level >= int(t.currentLevel) {
		return
	}
	t.Untrail(t.levelStarts[level])
	t.levelStarts = t.levelStarts[:level]
	t.currentLevel = int32(level)
}
