package solver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvlsolve/rev"
)

// stateInfo is the payload carried by a state marker.
type stateInfo struct {
	decision    Decision
	action      func(*Solver)
	sentinel    sentinelCode
	rightBranch bool
	depth       int
	leftDepth   int
}

// stateMarker captures the high-water marks of every reversible store at the
// moment a level was pushed.
type stateMarker struct {
	kind markerKind
	info stateInfo

	revIntLen  int
	revUintLen int
	revBoolLen int
	ownedLen   int
}

// searchFail is the panic payload of the fail unwind. It never escapes the
// solver's protected frames.
type searchFail struct{ s *Solver }

// Solver owns all reversible state of one constraint model: the trails, the
// demon queue, the marker stack and the search frames. A Solver must only be
// used from one goroutine.
type Solver struct {
	name   string
	params Parameters
	log    *zap.Logger

	state State

	revInt  *rev.Trail[int64]
	revUint *rev.Trail[uint64]

	boolLocs []*bool
	boolVals []bool
	owned    []Releaser

	queue    *queue
	searches []*search

	constraints []Constraint

	branches  int64
	fails     int64
	decisions int64
	failStamp uint64
	demonRuns [numPriorities]int64

	numVariables int
}

// NewSolver creates a solver and pushes the constructor sentinel that bounds
// its lifetime.
func NewSolver(name string, opts ...Option) *Solver {
	params := gatherParameters(opts)
	s := &Solver{
		name:   name,
		params: params,
		log:    params.Logger,
		state:  StateOutsideSearch,
		revInt: rev.NewTrail[int64](
			rev.WithBlockSize(params.TrailBlockSize),
			rev.WithCompression(params.TrailCompression)),
		revUint: rev.NewTrail[uint64](
			rev.WithBlockSize(params.TrailBlockSize),
			rev.WithCompression(params.TrailCompression)),
	}
	s.queue = newQueue(s)
	s.searches = []*search{newSearch(s)}
	s.pushSentinel(solverCtorSentinel)

	return s
}

// Name returns the name given to NewSolver; StoreNames does not affect it.
func (s *Solver) Name() string { return s.name }

// State returns the lifecycle state.
func (s *Solver) State() State { return s.state }

// Parameters returns the configuration the solver was built with.
func (s *Solver) Parameters() Parameters { return s.params }

// Branches returns the number of branches explored so far.
func (s *Solver) Branches() int64 { return s.branches }

// Failures returns the number of failures raised so far.
func (s *Solver) Failures() int64 { return s.fails }

// Decisions returns the number of decisions applied so far.
func (s *Solver) Decisions() int64 { return s.decisions }

// Solutions returns the top-level solution count.
func (s *Solver) Solutions() int64 { return s.searches[0].solutionCounter }

// String summarises the solver state and counters.
func (s *Solver) String() string {
	out := fmt.Sprintf("Solver(name=%q, state=%v, branches=%d, fails=%d, decisions=%d",
		s.name, s.state, s.branches, s.fails, s.decisions)
	if s.params.Profile {
		out += fmt.Sprintf(", demon runs=[normal:%d var:%d delayed:%d]",
			s.demonRuns[NormalPriority], s.demonRuns[VarPriority], s.demonRuns[DelayedPriority])
	}

	return out + ")"
}

// topSearch returns the innermost search frame.
func (s *Solver) topSearch() *search { return s.searches[len(s.searches)-1] }

// ----- Reversible saves -----

// SaveInt64 records the current value behind loc for restore on backtrack.
func (s *Solver) SaveInt64(loc *int64) { s.revInt.Save(loc) }

// SaveUint64 records the current value behind loc for restore on backtrack.
func (s *Solver) SaveUint64(loc *uint64) { s.revUint.Save(loc) }

// SaveBool records the current value behind loc for restore on backtrack.
func (s *Solver) SaveBool(loc *bool) {
	s.boolLocs = append(s.boolLocs, loc)
	s.boolVals = append(s.boolVals, *loc)
}

// SaveAndSetInt64 records then overwrites.
func (s *Solver) SaveAndSetInt64(loc *int64, val int64) {
	s.revInt.Save(loc)
	*loc = val
}

// SaveAndSetUint64 records then overwrites.
func (s *Solver) SaveAndSetUint64(loc *uint64, val uint64) {
	s.revUint.Save(loc)
	*loc = val
}

// SaveAndSetBool records then overwrites.
func (s *Solver) SaveAndSetBool(loc *bool, val bool) {
	s.SaveBool(loc)
	*loc = val
}

// SaveAndAddInt64 records then increments.
func (s *Solver) SaveAndAddInt64(loc *int64, delta int64) {
	s.revInt.Save(loc)
	*loc += delta
}

// Own ties the lifetime of r to the current choice point: when the marker in
// force now is popped, r.Release() runs.
func (s *Solver) Own(r Releaser) {
	s.owned = append(s.owned, r)
}

// OwnAll registers several owned objects; they are released in reverse
// registration order on backtrack.
func (s *Solver) OwnAll(rs ...Releaser) {
	s.owned = append(s.owned, rs...)
}

// AddBacktrackAction schedules fn to run when the current level is undone.
func (s *Solver) AddBacktrackAction(fn func(*Solver)) {
	s.pushState(markerReversibleAction, stateInfo{action: fn})
}

// ----- Marker stack -----

// PushState pushes a plain marker delimiting a backtrackable level.
func (s *Solver) PushState() {
	s.pushState(markerSimple, stateInfo{})
}

// PopState pops the level pushed by the matching PushState, restoring all
// saves made under it and running the backtrack actions scheduled inside
// it. Panics when a choice point or sentinel is met instead (programmer
// error: those belong to the search driver).
func (s *Solver) PopState() {
	for {
		kind, info := s.popState()
		switch kind {
		case markerSimple:
			return
		case markerReversibleAction:
			info.action(s)
		default:
			panic("solver: PopState popped a search marker")
		}
	}
}

func (s *Solver) pushState(kind markerKind, info stateInfo) {
	m := &stateMarker{
		kind:       kind,
		info:       info,
		revIntLen:  s.revInt.Len(),
		revUintLen: s.revUint.Len(),
		revBoolLen: len(s.boolLocs),
		ownedLen:   len(s.owned),
	}
	top := s.topSearch()
	top.markerStack = append(top.markerStack, m)
	s.queue.increaseStamp()
}

func (s *Solver) popState() (markerKind, stateInfo) {
	top := s.topSearch()
	if len(top.markerStack) == 0 {
		panic("solver: PopState on an empty marker stack")
	}
	m := top.markerStack[len(top.markerStack)-1]
	top.markerStack = top.markerStack[:len(top.markerStack)-1]
	s.backtrackTo(m)
	s.queue.increaseStamp()

	return m.kind, m.info
}

// backtrackTo walks each reversible store in LIFO order down to the marks
// captured by m, then releases the objects owned past it.
func (s *Solver) backtrackTo(m *stateMarker) {
	s.revInt.RestoreTo(m.revIntLen)
	s.revUint.RestoreTo(m.revUintLen)

	for i := len(s.boolLocs) - 1; i >= m.revBoolLen; i-- {
		*s.boolLocs[i] = s.boolVals[i]
	}
	s.boolLocs = s.boolLocs[:m.revBoolLen]
	s.boolVals = s.boolVals[:m.revBoolLen]

	for i := len(s.owned) - 1; i >= m.ownedLen; i-- {
		s.owned[i].Release()
	}
	s.owned = s.owned[:m.ownedLen]
}

func (s *Solver) pushSentinel(code sentinelCode) {
	s.pushState(markerSentinel, stateInfo{sentinel: code})
	if code != solverCtorSentinel {
		s.topSearch().sentinelPushed++
	}
}

// backtrackToSentinel pops markers, undoing state, until the sentinel with
// the given code is popped. Reversible actions met on the way run.
func (s *Solver) backtrackToSentinel(code sentinelCode) {
	top := s.topSearch()
	if top.sentinelPushed == 0 {
		return
	}
	for {
		kind, info := s.popState()
		switch kind {
		case markerSentinel:
			top.sentinelPushed--
			top.searchDepth = 0
			top.leftSearchDepth = 0
			if info.sentinel == code {
				s.failStamp++

				return
			}
		case markerReversibleAction:
			info.action(s)
		case markerChoicePoint, markerSimple:
			// State already undone by popState.
		}
	}
}

// backtrackOneLevel pops markers until the most recent left-branch choice
// point, whose decision becomes the pending refutation. Returns true when a
// sentinel was met first: the tree is exhausted.
func (s *Solver) backtrackOneLevel(failDecision *Decision) bool {
	top := s.topSearch()
	noMoreSolutions := false
	for {
		kind, info := s.popState()
		done := false
		switch kind {
		case markerSentinel:
			top.sentinelPushed--
			noMoreSolutions = true
			done = true
		case markerChoicePoint:
			if !info.rightBranch {
				*failDecision = info.decision
				top.searchDepth = info.depth
				top.leftSearchDepth = info.leftDepth
				done = true
			}
		case markerReversibleAction:
			info.action(s)
		case markerSimple:
			s.log.Error("simple marker met during search backtrack")
		}
		if done {
			break
		}
	}
	top.endFail()
	s.failStamp++
	if noMoreSolutions {
		top.noMoreSolutions()
	}

	return noMoreSolutions
}

// jumpToSentinelWhenNested closes the innermost search without undoing its
// state: reversible-action markers migrate into the enclosing search frame,
// everything else is dropped.
func (s *Solver) jumpToSentinelWhenNested() {
	if len(s.searches) <= 1 {
		panic("solver: jump to sentinel from the top-level search")
	}
	inner := s.topSearch()
	outer := s.searches[len(s.searches)-2]
	found := false
	for i := len(inner.markerStack) - 1; i >= 0; i-- {
		m := inner.markerStack[i]
		if m.kind == markerReversibleAction {
			outer.markerStack = append(outer.markerStack, m)
			continue
		}
		if m.kind == markerSentinel {
			if i != 0 {
				panic("solver: sentinel found too early in nested jump")
			}
			found = true
		}
	}
	inner.markerStack = inner.markerStack[:0]
	inner.searchDepth = 0
	inner.leftSearchDepth = 0
	if !found {
		panic("solver: sentinel not found in nested jump")
	}
}

// ----- Failure -----

// Fail raises a search failure: the engine unwinds to the driver, which
// backtracks to the most recent refutable choice point. Constraints call
// this when a domain refutation is detected.
func (s *Solver) Fail() {
	s.fails++
	s.topSearch().beginFail()
	panic(searchFail{s: s})
}

// protect runs fn under a protected frame, converting this solver's fail
// unwind into a boolean. Any other panic propagates.
func (s *Solver) protect(fn func()) (failed bool) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(searchFail)
			if !ok || f.s != s {
				panic(r)
			}
			failed = true
		}
	}()
	fn()

	return false
}

// ----- Constraints -----

// AddConstraint registers c with the model. Outside search the constraint is
// posted by the initial propagation of the next search (run by Solve, or by
// the first NextSolution after NewSearch); during search it is queued for
// immediate posting (and may itself post further constraints, processed in
// FIFO order before search resumes).
func (s *Solver) AddConstraint(c Constraint) {
	if c == nil {
		panic("solver: nil constraint")
	}
	s.constraints = append(s.constraints, c)
	if s.state == StateInSearch {
		s.queue.addConstraint(c)
	}
}

// Constraints returns the registered constraints, for model visiting.
func (s *Solver) Constraints() []Constraint { return s.constraints }

// processConstraints runs the initial propagation of every registered
// constraint.
func (s *Solver) processConstraints() {
	for i := 0; i < len(s.constraints); i++ {
		PostAndPropagate(s, s.constraints[i])
	}
}

// Accept dispatches the whole model to a visitor.
func (s *Solver) Accept(v ModelVisitor) {
	v.BeginVisitModel(s.name)
	for _, c := range s.constraints {
		c.Accept(v)
	}
	v.EndVisitModel()
}
