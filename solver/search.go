package solver

// search is one search frame: its marker stack, monitors, decision builder
// and per-search flags. Nested solves push fresh frames.
type search struct {
	solver *Solver

	markerStack []*stateMarker
	monitors    []SearchMonitor
	db          DecisionBuilder

	sentinelPushed  int
	createdBySolve  bool
	solutionCounter int64

	shouldFinish  bool
	shouldRestart bool

	searchDepth     int
	leftSearchDepth int

	branchSelector func(Decision) DecisionModification
}

func newSearch(s *Solver) *search { return &search{solver: s} }

func (f *search) clear() {
	f.monitors = f.monitors[:0]
	f.db = nil
	f.createdBySolve = false
	f.shouldFinish = false
	f.shouldRestart = false
	f.searchDepth = 0
	f.leftSearchDepth = 0
	f.branchSelector = nil
}

// ----- Monitor fan-out -----

func (f *search) enterSearch() {
	for _, m := range f.monitors {
		m.EnterSearch()
	}
}

func (f *search) restartSearch() {
	for _, m := range f.monitors {
		m.RestartSearch()
	}
}

func (f *search) exitSearch() {
	for _, m := range f.monitors {
		m.ExitSearch()
	}
}

func (f *search) beginNextDecision(db DecisionBuilder) {
	for _, m := range f.monitors {
		m.BeginNextDecision(db)
	}
}

func (f *search) endNextDecision(db DecisionBuilder, d Decision) {
	for _, m := range f.monitors {
		m.EndNextDecision(db, d)
	}
}

func (f *search) applyDecision(d Decision) {
	for _, m := range f.monitors {
		m.ApplyDecision(d)
	}
}

func (f *search) refuteDecision(d Decision) {
	for _, m := range f.monitors {
		m.RefuteDecision(d)
	}
}

func (f *search) afterDecision(d Decision, applied bool) {
	for _, m := range f.monitors {
		m.AfterDecision(d, applied)
	}
}

func (f *search) beginFail() {
	for _, m := range f.monitors {
		m.BeginFail()
	}
}

func (f *search) endFail() {
	for _, m := range f.monitors {
		m.EndFail()
	}
}

func (f *search) beginInitialPropagation() {
	for _, m := range f.monitors {
		m.BeginInitialPropagation()
	}
}

func (f *search) endInitialPropagation() {
	for _, m := range f.monitors {
		m.EndInitialPropagation()
	}
}

// acceptSolution is a conjunction: one veto fails the candidate.
func (f *search) acceptSolution() bool {
	accept := true
	for _, m := range f.monitors {
		accept = m.AcceptSolution() && accept
	}

	return accept
}

// atSolution is a disjunction: one monitor asking to continue resumes the
// search after a solution.
func (f *search) atSolution() bool {
	resume := false
	for _, m := range f.monitors {
		resume = m.AtSolution() || resume
	}

	return resume
}

func (f *search) noMoreSolutions() {
	for _, m := range f.monitors {
		m.NoMoreSolutions()
	}
}

func (f *search) periodicCheck() {
	for _, m := range f.monitors {
		m.PeriodicCheck()
	}
}

func (f *search) modifyDecision(d Decision) DecisionModification {
	if f.branchSelector != nil {
		return f.branchSelector(d)
	}

	return NoChange
}

// ----- Public driver API -----

// SetBranchSelector installs the decision-modifier callback consulted
// before applying every decision. Cleared when the search exits.
func (s *Solver) SetBranchSelector(fn func(Decision) DecisionModification) {
	s.topSearch().branchSelector = fn
}

// NewSearch opens a top-level search on db. Call NextSolution to explore
// and EndSearch to close.
// Panics when called inside a running search: use NestedSolve there.
func (s *Solver) NewSearch(db DecisionBuilder, monitors ...SearchMonitor) {
	if db == nil {
		panic("solver: nil decision builder")
	}
	if s.state == StateInSearch {
		panic("solver: NewSearch called inside search, use NestedSolve")
	}

	top := s.topSearch()
	s.backtrackToSentinel(initialSearchSentinel)
	s.state = StateOutsideSearch
	top.clear()
	top.solutionCounter = 0

	top.monitors = append(top.monitors, monitors...)
	top.monitors = append(top.monitors, db.AppendMonitors(s)...)
	top.enterSearch()

	s.pushSentinel(initialSearchSentinel)
	top.db = db
}

// Solve opens a search on db, explores until the tree is exhausted (or a
// monitor stops it), closes the search and reports whether at least one
// solution was found. With an enumeration monitor every solution is visited
// before Solve returns.
func (s *Solver) Solve(db DecisionBuilder, monitors ...SearchMonitor) bool {
	s.NewSearch(db, monitors...)
	top := s.topSearch()
	top.createdBySolve = true
	s.NextSolution()
	found := top.solutionCounter > 0
	s.EndSearch()

	return found
}

// NextSolution advances the depth-first exploration to the next solution.
// Returns false when the tree is exhausted, the problem is infeasible, or a
// limit stopped the search.
func (s *Solver) NextSolution() bool {
	top := s.topSearch()
	topLevel := len(s.searches) == 1
	var fd Decision

	if topLevel {
		switch s.state {
		case StateProblemInfeasible, StateNoMoreSolutions:
			return false
		case StateAtSolution:
			// Leave the solution leaf before searching on.
			if s.backtrackOneLevel(&fd) {
				s.state = StateNoMoreSolutions

				return false
			}
			s.state = StateInSearch
		case StateOutsideSearch:
			if top.db == nil {
				s.log.Warn("NextSolution called without a NewSearch")

				return false
			}
			if !s.runInitialPropagation(top) {
				return false
			}
		case StateInSearch: // after a restart
		}
	}

	sentinel := rootNodeSentinel
	if !topLevel {
		sentinel = initialSearchSentinel
	}

	result := false
	for finish := false; !finish; {
		failed := s.protect(func() { s.exploreNode(top, &fd, &result, &finish) })
		if !failed {
			continue
		}
		s.queue.afterFailure()
		switch {
		case top.shouldFinish:
			fd = nil
			s.backtrackToSentinel(sentinel)
			top.shouldFinish = false
			top.shouldRestart = false
			result = false
			finish = true
		case top.shouldRestart:
			fd = nil
			s.backtrackToSentinel(sentinel)
			top.shouldFinish = false
			top.shouldRestart = false
			s.pushSentinel(sentinel)
			top.restartSearch()
		default:
			if s.backtrackOneLevel(&fd) {
				result = false
				finish = true
			}
		}
	}

	if topLevel {
		if result {
			s.state = StateAtSolution
		} else {
			s.state = StateNoMoreSolutions
		}
	}

	return result
}

// runInitialPropagation posts the model under a protected frame. On failure
// the problem is infeasible and the solver says so terminally.
func (s *Solver) runInitialPropagation(top *search) bool {
	top.beginInitialPropagation()
	failed := s.protect(func() {
		s.processConstraints()
		top.endInitialPropagation()
		s.pushSentinel(rootNodeSentinel)
		s.state = StateInSearch
	})
	if failed {
		s.queue.afterFailure()
		s.backtrackToSentinel(initialSearchSentinel)
		s.state = StateProblemInfeasible

		return false
	}

	return true
}

// exploreNode is one protected leg of the driver: refute the pending
// decision if any, then build and apply decisions until the builder
// declares a solution.
func (s *Solver) exploreNode(top *search, fd *Decision, result, finish *bool) {
	if *fd != nil {
		// Right branch: un-apply happened during backtrack, now flip.
		s.pushState(markerChoicePoint, stateInfo{
			decision:    *fd,
			rightBranch: true,
			depth:       top.searchDepth,
			leftDepth:   top.leftSearchDepth,
		})
		top.refuteDecision(*fd)
		s.branches++
		(*fd).Refute(s)
		top.afterDecision(*fd, false)
		top.searchDepth++
		*fd = nil
	}

	for {
		top.periodicCheck()
		if top.shouldFinish {
			s.Fail()
		}
		top.beginNextDecision(top.db)
		d := top.db.Next(s)
		top.endNextDecision(top.db, d)
		if d == failDecisionSentinel {
			s.Fail() // fail now instead of two branches later
		}
		if d == nil {
			break
		}

		modification := top.modifyDecision(d)
		if modification == SwitchBranches {
			d = reverseDecision{d: d}
			modification = NoChange
		}
		switch modification {
		case NoChange:
			s.decisions++
			s.pushState(markerChoicePoint, stateInfo{
				decision:  d,
				depth:     top.searchDepth,
				leftDepth: top.leftSearchDepth,
			})
			top.applyDecision(d)
			s.branches++
			d.Apply(s)
			top.afterDecision(d, true)
			top.searchDepth++
			top.leftSearchDepth++
		case KeepLeft:
			top.applyDecision(d)
			d.Apply(s)
			top.afterDecision(d, true)
		case KeepRight:
			top.refuteDecision(d)
			d.Refute(s)
			top.afterDecision(d, false)
		case KillBoth:
			s.Fail()
		}
	}

	if !top.acceptSolution() {
		s.Fail()
	}
	top.solutionCounter++
	if top.atSolution() && top.createdBySolve {
		s.Fail() // resume enumeration inside Solve
	}
	*result = true
	*finish = true
}

// EndSearch closes the top-level search, unwinding to the initial sentinel.
func (s *Solver) EndSearch() {
	if len(s.searches) != 1 {
		panic("solver: EndSearch inside a nested solve")
	}
	top := s.topSearch()
	s.backtrackToSentinel(initialSearchSentinel)
	top.exitSearch()
	top.clear()
	s.state = StateOutsideSearch
}

// RestartSearch unwinds to the appropriate sentinel, pushes a fresh one,
// and replays every monitor's restart hook.
func (s *Solver) RestartSearch() {
	top := s.topSearch()
	if top.sentinelPushed == 0 {
		panic("solver: RestartSearch outside a search")
	}
	if len(s.searches) == 1 {
		if top.sentinelPushed > 1 {
			s.backtrackToSentinel(rootNodeSentinel)
		}
		s.pushSentinel(rootNodeSentinel)
		s.state = StateInSearch
	} else {
		s.backtrackToSentinel(initialSearchSentinel)
		s.pushSentinel(initialSearchSentinel)
	}
	top.restartSearch()
}

// NestedSolve runs an inner search in its own frame, to the first solution
// or exhaustion. With restore the inner work is fully undone; without it,
// the solution state is kept and only the inner reversible actions migrate
// into the enclosing frame. Nested solves nest freely.
func (s *Solver) NestedSolve(db DecisionBuilder, restore bool, monitors ...SearchMonitor) bool {
	if db == nil {
		panic("solver: nil decision builder")
	}
	inner := newSearch(s)
	inner.createdBySolve = true
	s.searches = append(s.searches, inner)

	inner.monitors = append(inner.monitors, monitors...)
	inner.monitors = append(inner.monitors, db.AppendMonitors(s)...)
	inner.enterSearch()
	s.pushSentinel(initialSearchSentinel)
	inner.db = db

	result := s.NextSolution()
	if result {
		if restore {
			s.backtrackToSentinel(initialSearchSentinel)
		} else {
			s.jumpToSentinelWhenNested()
		}
	}
	inner.exitSearch()
	s.searches = s.searches[:len(s.searches)-1]

	return result
}
