package solver

import "time"

// SearchMonitor observes and steers the search through a fixed set of
// hooks. Embed MonitorBase to implement only the hooks you need.
type SearchMonitor interface {
	EnterSearch()
	RestartSearch()
	ExitSearch()

	BeginNextDecision(db DecisionBuilder)
	EndNextDecision(db DecisionBuilder, d Decision)
	ApplyDecision(d Decision)
	RefuteDecision(d Decision)
	AfterDecision(d Decision, applied bool)

	BeginFail()
	EndFail()

	BeginInitialPropagation()
	EndInitialPropagation()

	// AcceptSolution votes on a candidate solution; one veto fails the node.
	AcceptSolution() bool
	// AtSolution reports whether the search should resume after a solution.
	AtSolution() bool
	NoMoreSolutions()

	// PeriodicCheck runs at every node; a limit monitor uses it to request
	// a finish.
	PeriodicCheck()

	LocalOptimum() bool
	AcceptDelta() bool
	AcceptNeighbor()
}

// MonitorBase is a no-op SearchMonitor for embedding.
type MonitorBase struct{}

func (MonitorBase) EnterSearch()                              {}
func (MonitorBase) RestartSearch()                            {}
func (MonitorBase) ExitSearch()                               {}
func (MonitorBase) BeginNextDecision(DecisionBuilder)         {}
func (MonitorBase) EndNextDecision(DecisionBuilder, Decision) {}
func (MonitorBase) ApplyDecision(Decision)                    {}
func (MonitorBase) RefuteDecision(Decision)                   {}
func (MonitorBase) AfterDecision(Decision, bool)              {}
func (MonitorBase) BeginFail()                                {}
func (MonitorBase) EndFail()                                  {}
func (MonitorBase) BeginInitialPropagation()                  {}
func (MonitorBase) EndInitialPropagation()                    {}
func (MonitorBase) AcceptSolution() bool                      { return true }
func (MonitorBase) AtSolution() bool                          { return false }
func (MonitorBase) NoMoreSolutions()                          {}
func (MonitorBase) PeriodicCheck()                            {}
func (MonitorBase) LocalOptimum() bool                        { return false }
func (MonitorBase) AcceptDelta() bool                         { return true }
func (MonitorBase) AcceptNeighbor()                           {}

// ----- Enumeration -----

// enumerateAll keeps the search going after each solution, so the driver
// visits every leaf.
type enumerateAll struct{ MonitorBase }

// NewEnumerateAll returns a monitor that forces exhaustive enumeration:
// every solution is counted and the search resumes until the tree is done.
func NewEnumerateAll() SearchMonitor { return &enumerateAll{} }

func (*enumerateAll) AtSolution() bool { return true }

// ----- Time limit -----

// timeLimit cooperatively stops the search after a wall-clock budget.
type timeLimit struct {
	MonitorBase
	s        *Solver
	limit    time.Duration
	deadline time.Time
}

// NewTimeLimit returns a monitor that requests a finish once the wall-clock
// budget is spent; the next propagation cycle turns it into a clean unwind
// and the search reports no more solutions.
func NewTimeLimit(s *Solver, limit time.Duration) SearchMonitor {
	return &timeLimit{s: s, limit: limit}
}

func (m *timeLimit) EnterSearch()   { m.deadline = time.Now().Add(m.limit) }
func (m *timeLimit) RestartSearch() {} // the budget spans restarts

func (m *timeLimit) PeriodicCheck() {
	if time.Now().After(m.deadline) {
		m.s.topSearch().shouldFinish = true
	}
}

// ----- Restarts -----

// restartOnFailures restarts the search from the root every time the
// failure budget is spent, growing the budget geometrically.
type restartOnFailures struct {
	MonitorBase
	s      *Solver
	base   int64
	budget int64
	seen   int64
}

// NewRestartOnFailures returns a monitor restarting the search each time
// `base` failures accumulate since the last restart; the budget doubles on
// every restart.
func NewRestartOnFailures(s *Solver, base int64) SearchMonitor {
	if base <= 0 {
		panic("solver: restart budget must be positive")
	}

	return &restartOnFailures{s: s, base: base, budget: base}
}

func (m *restartOnFailures) EnterSearch() {
	m.budget = m.base
	m.seen = 0
}

func (m *restartOnFailures) BeginFail() {
	m.seen++
	if m.seen >= m.budget {
		m.s.topSearch().shouldRestart = true
	}
}

func (m *restartOnFailures) RestartSearch() {
	m.seen = 0
	m.budget *= 2
}
