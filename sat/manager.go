package sat

import (
	"go.uber.org/zap"
)

// watcher is one entry of a literal's watch list: the clause has the
// negation of the list's literal in one of its first two slots. blocking is
// a hint literal checked before touching the clause memory; start is where
// the search for a replacement watch resumes inside the clause.
type watcher struct {
	clause   *Clause
	blocking Literal
	start    int32
}

// ClauseManager owns the database of input and learnt n-ary clauses and
// performs unit propagation over it with the two-watched-literal scheme.
// Binary clauses are routed to the attached ImplicationGraph.
type ClauseManager struct {
	trail *Trail
	graph *ImplicationGraph
	opts  Options
	id    int32

	watchersOnFalse [][]watcher
	reasons         []*Clause // by trail index
	clauses         []*Clause
	removable       map[*Clause]struct{}

	propagationTrailIndex int
	allAttached           bool
	needsCleanup          bool

	toMinimize int
	toProbe    int

	numWatchedClauses    int64
	numInspectedClauses  int64
	numInspectedLiterals int64
	numPropagations      int64
	numRemovedClauses    int64
	tmpProof             []ClausePtr
}

// NewClauseManager creates a manager over trail, registered as a reason
// server.
func NewClauseManager(trail *Trail, numVars int, opts ...Option) *ClauseManager {
	m := &ClauseManager{
		trail:       trail,
		opts:        gatherSatOptions(opts),
		removable:   make(map[*Clause]struct{}),
		allAttached: true,
	}
	m.id = trail.RegisterPropagator(m)
	m.Resize(numVars)

	return m
}

// SetImplicationGraph routes binary clauses (and rewrites shrinking to size
// two) into g.
func (m *ClauseManager) SetImplicationGraph(g *ImplicationGraph) { m.graph = g }

// PropagatorID returns the id under which this manager enqueues literals.
func (m *ClauseManager) PropagatorID() int32 { return m.id }

// Resize grows the watcher lists and reason store to numVars variables.
func (m *ClauseManager) Resize(numVars int) {
	m.trail.Resize(numVars)
	for len(m.watchersOnFalse) < 2*numVars {
		m.watchersOnFalse = append(m.watchersOnFalse, nil)
	}
	for len(m.reasons) < numVars {
		m.reasons = append(m.reasons, nil)
	}
}

// attachOnFalse is the only place watchers are added: the list of a literal
// holds the clauses watching it, walked when it becomes false.
func (m *ClauseManager) attachOnFalse(lit, blocking Literal, c *Clause) {
	m.watchersOnFalse[lit.Index()] = append(
		m.watchersOnFalse[lit.Index()],
		watcher{clause: c, blocking: blocking, start: 2},
	)
}

// AddClause inserts a problem clause of any size, dispatching on it:
// empty means unsatisfiable, units are enqueued at level 0, binaries go to
// the implication graph, larger clauses are attached to the watcher lists.
// Returns false when the database became unsatisfiable.
func (m *ClauseManager) AddClause(lits []Literal) bool {
	switch len(lits) {
	case 0:
		if m.opts.Proof != nil {
			m.opts.Proof.AddProblemClause(EmptyClausePtr())
		}
		m.trail.SetConflict(nil)

		return false
	case 1:
		if m.opts.Proof != nil {
			m.opts.Proof.AddProblemClause(UnitClausePtr(lits[0]))
		}

		return m.addUnit(lits[0])
	case 2:
		if m.graph != nil {
			if m.opts.Proof != nil {
				m.opts.Proof.AddProblemClause(BinaryClausePtr(lits[0], lits[1]))
			}

			return m.graph.AddBinaryClause(lits[0], lits[1])
		}
	}

	c := NewClause(lits)
	m.clauses = append(m.clauses, c)
	if m.opts.Proof != nil {
		m.opts.Proof.AddProblemClause(NaryClausePtr(c))
	}

	return m.attachAndPropagate(c)
}

// AddLearntClause inserts a clause produced by conflict analysis. Clauses at
// or below the cleanup LBD bound are kept permanently; the rest are
// candidates for ReduceDB.
func (m *ClauseManager) AddLearntClause(lits []Literal, lbd int) bool {
	switch len(lits) {
	case 0:
		m.trail.SetConflict(nil)
		return false
	case 1:
		return m.addUnit(lits[0])
	case 2:
		if m.graph != nil {
			return m.graph.AddBinaryClause(lits[0], lits[1])
		}
	}

	c := NewLearntClause(lits, lbd)
	m.clauses = append(m.clauses, c)
	if lbd > m.opts.ClauseCleanupLBDBound {
		m.removable[c] = struct{}{}
	}

	return m.attachAndPropagate(c)
}

func (m *ClauseManager) addUnit(l Literal) bool {
	assignment := m.trail.Assignment()
	if assignment.LiteralIsTrue(l) {
		return true
	}
	if assignment.LiteralIsFalse(l) {
		if m.opts.Proof != nil {
			m.opts.Proof.AddInferredClause(EmptyClausePtr(),
				[]ClausePtr{UnitClausePtr(l.Negated()), UnitClausePtr(l)})
		}
		m.trail.SetConflict([]Literal{l})

		return false
	}
	m.trail.EnqueueWithUnitReason(l)

	return true
}

// attachAndPropagate selects two non-false literals as the watched pair. If
// only one literal is non-false it is enqueued (unit propagation) with the
// highest-level false literal as the second watch, preserving the watcher
// invariant. Returns false when every literal is false.
func (m *ClauseManager) attachAndPropagate(c *Clause) bool {
	assignment := m.trail.Assignment()
	lits := c.literals
	size := len(lits)

	numNotFalse := 0
	for i := 0; i < size && numNotFalse < 2; i++ {
		if !assignment.LiteralIsFalse(lits[i]) {
			lits[i], lits[numNotFalse] = lits[numNotFalse], lits[i]
			numNotFalse++
		}
	}

	if numNotFalse == 0 {
		m.trail.SetConflict(lits)
		m.trail.SetFailingClause(c)

		return false
	}

	if numNotFalse == 1 {
		// Watch the false literal with the highest decision level.
		maxLevel := m.trail.AssignmentLevel(lits[1])
		for i := 2; i < size; i++ {
			if level := m.trail.AssignmentLevel(lits[i]); level > maxLevel {
				maxLevel = level
				lits[1], lits[i] = lits[i], lits[1]
			}
		}
		if !assignment.LiteralIsTrue(lits[0]) {
			m.reasons[m.trail.Index()] = c
			m.trail.EnqueueAtLevel(lits[0], m.id, maxLevel)
		}
	}

	m.numWatchedClauses++
	m.attachOnFalse(lits[0], lits[1], c)
	m.attachOnFalse(lits[1], lits[0], c)

	return true
}

// Propagate drains the trail from this manager's frontier, performing unit
// propagation on the watched clauses. Returns false on conflict, with the
// conflicting clause copied into the trail's conflict slot.
func (m *ClauseManager) Propagate() bool {
	assignment := m.trail.Assignment()

	for m.propagationTrailIndex < m.trail.Index() {
		falseLiteral := m.trail.Literal(m.propagationTrailIndex).Negated()
		m.propagationTrailIndex++

		watchers := m.watchersOnFalse[falseLiteral.Index()]
		kept := 0

		for i := 0; i < len(watchers); i++ {
			w := watchers[i]
			// Blocking literal first: skip the clause memory entirely.
			if assignment.LiteralIsTrue(w.blocking) {
				watchers[kept] = w
				kept++
				continue
			}
			m.numInspectedClauses++

			c := w.clause
			size := c.Size()
			if size == 0 { // lazily deleted, drop the watcher
				continue
			}

			lits := c.literals
			other := lits[0] ^ lits[1] ^ falseLiteral
			if assignment.LiteralIsTrue(other) {
				w.blocking = other
				watchers[kept] = w
				kept++
				continue
			}

			// Look for a replacement watch, cyclically from w.start.
			newWatch := -1
			{
				j := int(w.start)
				for j < size && assignment.LiteralIsFalse(lits[j]) {
					j++
				}
				m.numInspectedLiterals += int64(j - int(w.start) + 2)
				if j >= size {
					j = 2
					for j < int(w.start) && assignment.LiteralIsFalse(lits[j]) {
						j++
					}
					if j >= int(w.start) {
						j = size
					}
				}
				if j < size {
					newWatch = j
				}
			}

			if newWatch >= 0 {
				// lits[newWatch] is unassigned or true; it becomes watched.
				lits[0] = other
				lits[1] = lits[newWatch]
				lits[newWatch] = falseLiteral
				m.watchersOnFalse[lits[1].Index()] = append(
					m.watchersOnFalse[lits[1].Index()],
					watcher{clause: c, blocking: other, start: int32(newWatch + 1)},
				)
				continue
			}

			// The clause is under `other`: conflict or propagation.
			if assignment.LiteralIsFalse(other) {
				m.trail.SetConflict(lits)
				m.trail.SetFailingClause(c)
				// Keep the remaining watchers.
				kept += copy(watchers[kept:], watchers[i:])
				m.watchersOnFalse[falseLiteral.Index()] = watchers[:kept]

				return false
			}

			m.numPropagations++
			lits[0] = other
			lits[1] = falseLiteral

			level := m.propagationLevel(lits)
			if level == 0 {
				if m.opts.Proof != nil {
					proof := m.tmpProof[:0]
					for _, l := range lits[1:] {
						proof = append(proof, UnitClausePtr(l.Negated()))
					}
					proof = append(proof, NaryClausePtr(c))
					m.opts.Proof.AddInferredClause(UnitClausePtr(other), proof)
					m.tmpProof = proof[:0]
				}
				m.trail.EnqueueWithUnitReason(other)
			} else {
				m.reasons[m.trail.Index()] = c
				m.trail.EnqueueAtLevel(other, m.id, level)
			}
			watchers[kept] = w
			kept++
		}
		m.watchersOnFalse[falseLiteral.Index()] = watchers[:kept]
	}

	return true
}

// propagationLevel is the maximum decision level among the false literals of
// a unit clause, which is where the implied literal logically lives.
func (m *ClauseManager) propagationLevel(lits []Literal) int {
	level := 0
	for _, l := range lits[1:] {
		if ll := m.trail.AssignmentLevel(l); ll > level {
			level = ll
		}
	}

	return level
}

// Reason serves the reason of a literal this manager propagated: the clause
// literals minus the propagated one, which by convention sits at slot 0.
func (m *ClauseManager) Reason(_ *Trail, trailIndex int) []Literal {
	return m.reasons[trailIndex].literals[1:]
}

// ReasonClause returns the heap clause that propagated the literal at the
// given trail index, or nil.
func (m *ClauseManager) ReasonClause(trailIndex int) *Clause {
	if m.trail.Info(m.trail.Literal(trailIndex).Variable()).Type != m.id {
		return nil
	}

	return m.reasons[trailIndex]
}

// Untrail rewinds this manager's propagation frontier. Watchers are not
// touched: unassigning literals only loosens the two-watched invariant.
func (m *ClauseManager) Untrail(target int) {
	if m.propagationTrailIndex > target {
		m.propagationTrailIndex = target
	}
}

// LazyDelete detaches c logically: its size is zeroed, watcher entries are
// dropped on the fly during propagation or at the next cleanup sweep.
func (m *ClauseManager) LazyDelete(c *Clause) {
	if c.Size() == 0 {
		return
	}
	if m.opts.Proof != nil {
		m.opts.Proof.DeleteClauses([]ClausePtr{NaryClausePtr(c)})
	}
	m.numWatchedClauses--
	m.numRemovedClauses++
	delete(m.removable, c)
	c.lazyDelete()
	m.needsCleanup = true
}

// ReduceDB lazily deletes the removable learnt clauses whose LBD exceeds the
// cleanup bound, sparing protected clauses (and unprotecting them for the
// next round).
func (m *ClauseManager) ReduceDB() {
	removed := 0
	for c := range m.removable {
		if c.IsProtected() {
			c.Unprotect()
			continue
		}
		if c.LBD() > m.opts.ClauseCleanupLBDBound {
			m.LazyDelete(c)
			removed++
		}
	}
	m.opts.Logger.Debug("clause DB reduced",
		zap.Int("removed", removed),
		zap.Int("kept", len(m.clauses)-removed))
}

// CleanUpWatchers sweeps every watcher list, dropping entries of deleted
// clauses.
func (m *ClauseManager) CleanUpWatchers() {
	if !m.needsCleanup {
		return
	}
	for i, list := range m.watchersOnFalse {
		kept := 0
		for _, w := range list {
			if w.clause.Size() != 0 {
				list[kept] = w
				kept++
			}
		}
		m.watchersOnFalse[i] = list[:kept]
	}
	m.needsCleanup = false
}

// DeleteRemovedClauses compacts the clause database, dropping lazily deleted
// clauses and keeping the round-robin iteration indices stable.
func (m *ClauseManager) DeleteRemovedClauses() {
	kept := 0
	for i, c := range m.clauses {
		if c.IsDeleted() {
			if i < m.toMinimize {
				m.toMinimize--
			}
			if i < m.toProbe {
				m.toProbe--
			}
			continue
		}
		m.clauses[kept] = c
		kept++
	}
	m.clauses = m.clauses[:kept]
}

// DetachAllClauses empties every watcher list in bulk, for inprocessing.
func (m *ClauseManager) DetachAllClauses() {
	if !m.allAttached {
		return
	}
	m.allAttached = false
	m.numWatchedClauses = 0
	for i := range m.watchersOnFalse {
		m.watchersOnFalse[i] = nil
	}
	m.needsCleanup = false
}

// AttachAllClauses re-attaches the whole database after inprocessing,
// dropping deleted clauses first.
func (m *ClauseManager) AttachAllClauses() {
	if m.allAttached {
		return
	}
	m.allAttached = true
	m.DeleteRemovedClauses()
	for _, c := range m.clauses {
		m.numWatchedClauses++
		m.attachOnFalse(c.FirstLiteral(), c.SecondLiteral(), c)
		m.attachOnFalse(c.SecondLiteral(), c.FirstLiteral(), c)
	}
}

// AllClausesAreAttached reports whether the database is attached.
func (m *ClauseManager) AllClausesAreAttached() bool { return m.allAttached }

// clauseIsUsedAsReason reports whether c currently justifies a trail entry.
func (m *ClauseManager) clauseIsUsedAsReason(c *Clause) bool {
	v := c.FirstLiteral().Variable()
	if !m.trail.Assignment().VariableIsAssigned(v) {
		return false
	}
	info := m.trail.Info(v)

	return info.Type == m.id && m.reasons[info.TrailIndex] == c
}

// RemoveFixedLiterals strips the literals false at the root level from c,
// emitting the shrink proof. Returns true when c is satisfied at root and
// was deleted instead.
func (m *ClauseManager) RemoveFixedLiterals(c *Clause) bool {
	assignment := m.trail.Assignment()
	oldSize := c.Size()

	kept := 0
	var removed []Literal
	for _, l := range c.literals {
		if assignment.LiteralIsTrue(l) && m.trail.AssignmentLevel(l) == 0 {
			m.LazyDelete(c)
			return true
		}
		if assignment.LiteralIsFalse(l) && m.trail.AssignmentLevel(l) == 0 {
			removed = append(removed, l)
			continue
		}
		c.literals[kept] = l
		kept++
	}
	newSize := kept

	if m.opts.Proof != nil && newSize != oldSize {
		proof := m.tmpProof[:0]
		for _, l := range removed {
			proof = append(proof, UnitClausePtr(l.Negated()))
		}
		proof = append(proof, NaryClausePtr(c))
		if newSize == 2 {
			m.opts.Proof.AddInferredClause(
				BinaryClausePtr(c.literals[0], c.literals[1]), proof)
		} else {
			m.opts.Proof.RewriteClause(NaryClausePtr(c), c.literals[:newSize], proof)
		}
		m.tmpProof = proof[:0]
	}
	c.literals = c.literals[:newSize]
	c.ChangeLBDIfBetter(newSize)

	return false
}

// RewriteClause replaces c's literals by newLits, a subset implied with the
// given RUP justification. Units are fixed, pairs migrate to the implication
// graph, larger rewrites re-watch in place. Returns false when the database
// became unsatisfiable.
func (m *ClauseManager) RewriteClause(c *Clause, newLits []Literal, proof []ClausePtr) bool {
	if m.opts.Proof != nil {
		ptr := m.clausePtrFor(newLits)
		if len(newLits) >= 3 {
			ptr = NaryClausePtr(c)
		}
		if len(newLits) <= 2 {
			m.opts.Proof.AddInferredClause(ptr, proof)
		} else {
			m.opts.Proof.RewriteClause(ptr, newLits, proof)
		}
	}

	switch len(newLits) {
	case 0:
		return false
	case 1:
		if m.graph != nil {
			if !m.graph.FixLiteral(newLits[0], nil) {
				return false
			}
		} else if !m.addUnit(newLits[0]) {
			return false
		}
		m.LazyDelete(c)

		return true
	case 2:
		if m.graph != nil {
			if !m.graph.AddBinaryClause(newLits[0], newLits[1]) {
				return false
			}
			m.LazyDelete(c)

			return true
		}
	}

	// Detach eagerly, rewrite in place, reattach.
	if m.allAttached {
		m.detachEagerly(c)
	}
	c.literals = append(c.literals[:0], newLits...)
	c.ChangeLBDIfBetter(len(newLits))
	if m.allAttached {
		m.numWatchedClauses++
		m.attachOnFalse(c.literals[0], c.literals[1], c)
		m.attachOnFalse(c.literals[1], c.literals[0], c)
	}

	return true
}

func (m *ClauseManager) detachEagerly(c *Clause) {
	m.numWatchedClauses--
	for _, l := range []Literal{c.FirstLiteral(), c.SecondLiteral()} {
		list := m.watchersOnFalse[l.Index()]
		kept := 0
		for _, w := range list {
			if w.clause != c {
				list[kept] = w
				kept++
			}
		}
		m.watchersOnFalse[l.Index()] = list[:kept]
	}
}

// NextClauseToMinimize iterates the database round-robin for inprocessing
// minimisation, skipping deleted clauses.
func (m *ClauseManager) NextClauseToMinimize() *Clause {
	for n := 0; n < len(m.clauses); n++ {
		if m.toMinimize >= len(m.clauses) {
			m.toMinimize = 0
		}
		c := m.clauses[m.toMinimize]
		m.toMinimize++
		if !c.IsDeleted() {
			return c
		}
	}

	return nil
}

// NextClauseToProbe iterates the database round-robin for probing.
func (m *ClauseManager) NextClauseToProbe() *Clause {
	for n := 0; n < len(m.clauses); n++ {
		if m.toProbe >= len(m.clauses) {
			m.toProbe = 0
		}
		c := m.clauses[m.toProbe]
		m.toProbe++
		if !c.IsDeleted() {
			return c
		}
	}

	return nil
}

// NumClauses returns the number of live n-ary clauses.
func (m *ClauseManager) NumClauses() int {
	n := 0
	for _, c := range m.clauses {
		if !c.IsDeleted() {
			n++
		}
	}

	return n
}

// clausePtrFor identifies a small literal set by value. Only valid for at
// most two literals; n-ary clauses are identified by their heap object.
func (m *ClauseManager) clausePtrFor(lits []Literal) ClausePtr {
	switch len(lits) {
	case 0:
		return EmptyClausePtr()
	case 1:
		return UnitClausePtr(lits[0])
	default:
		return BinaryClausePtr(lits[0], lits[1])
	}
}
