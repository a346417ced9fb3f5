package solver_test

import (
	"testing"
	"time"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/solver"
)

// solutionRecorder captures variable values at every solution.
type solutionRecorder struct {
	solver.MonitorBase
	vars      []*solver.IntVar
	solutions [][]int64
}

func (m *solutionRecorder) AcceptSolution() bool {
	row := make([]int64, len(m.vars))
	for i, v := range m.vars {
		row[i] = v.Value()
	}
	m.solutions = append(m.solutions, row)

	return true
}

func TestSolve_FindsASolution(t *testing.T) {
	s := solver.NewSolver("simple")
	x := s.NewIntVar(0, 3, "x")
	y := s.NewIntVar(0, 3, "y")
	s.AddConstraint(solver.NewNonEqual(s, x, y))

	rec := &solutionRecorder{vars: []*solver.IntVar{x, y}}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x, y}), rec)

	require.True(t, found)
	require.Len(t, rec.solutions, 1)
	sol := rec.solutions[0]
	assert.NotEqual(t, sol[0], sol[1])
	assert.Equal(t, solver.StateOutsideSearch, s.State())
}

func TestSolve_EnumeratesAllSolutions(t *testing.T) {
	s := solver.NewSolver("enumerate")
	x := s.NewIntVar(0, 1, "x")
	y := s.NewIntVar(0, 1, "y")

	rec := &solutionRecorder{vars: []*solver.IntVar{x, y}}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x, y}),
		rec, solver.NewEnumerateAll())

	require.True(t, found)
	assert.Equal(t, int64(4), s.Solutions())

	// Every assignment appears exactly once: inserting a duplicate
	// signature would report false.
	seen := set.New[[2]int64](4)
	for _, sol := range rec.solutions {
		assert.True(t, seen.Insert([2]int64{sol[0], sol[1]}), "solution %v repeated", sol)
	}
	assert.Equal(t, 4, seen.Size())
}

func TestSolve_InfeasibleModel(t *testing.T) {
	s := solver.NewSolver("infeasible")
	x := s.NewIntVar(0, 1, "x")
	s.AddConstraint(solver.NewFalseConstraint(s))

	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x}))

	assert.False(t, found)
	// Solve closes its search, so the infeasible state does not outlive it.
	assert.Equal(t, solver.StateOutsideSearch, s.State())
}

func TestNextSolution_StepsThroughSolutions(t *testing.T) {
	s := solver.NewSolver("stepping")
	x := s.NewIntVar(0, 2, "x")

	s.NewSearch(solver.NewAssignVariables([]*solver.IntVar{x}))
	var values []int64
	for s.NextSolution() {
		values = append(values, x.Value())
	}
	s.EndSearch()

	require.Equal(t, []int64{0, 1, 2}, values)
	assert.Equal(t, solver.StateOutsideSearch, s.State())
}

func TestSolve_FourQueens(t *testing.T) {
	s := solver.NewSolver("four-queens")
	n := int64(4)
	queens := make([]*solver.IntVar, n)
	for i := range queens {
		queens[i] = s.NewIntVar(0, n-1, "")
	}

	rows, err := solver.NewAllDifferent(s, queens)
	require.NoError(t, err)
	s.AddConstraint(rows)
	for i := 0; i < int(n); i++ {
		for j := i + 1; j < int(n); j++ {
			i, j := int64(i), int64(j)
			// No two queens share a diagonal.
			diag1 := solver.NewSum(s, queens[i], solver.NewIntConstExpr(s, i))
			diag2 := solver.NewSum(s, queens[j], solver.NewIntConstExpr(s, j))
			s.AddConstraint(newNotEqualExpr(s, diag1, diag2))
			anti1 := solver.NewSum(s, queens[i], solver.NewIntConstExpr(s, -i))
			anti2 := solver.NewSum(s, queens[j], solver.NewIntConstExpr(s, -j))
			s.AddConstraint(newNotEqualExpr(s, anti1, anti2))
		}
	}

	rec := &solutionRecorder{vars: queens}
	found := s.Solve(solver.NewAssignVariables(queens), rec, solver.NewEnumerateAll())

	require.True(t, found)
	assert.Equal(t, int64(2), s.Solutions()) // the two classic solutions
}

// newNotEqualExpr posts expr1 != expr2 through their cast variables.
func newNotEqualExpr(s *solver.Solver, a, b solver.IntExpr) solver.Constraint {
	return solver.NewNonEqual(s, a.Var(), b.Var())
}

func TestNestedSolve_RestoreUndoesWork(t *testing.T) {
	s := solver.NewSolver("nested-restore")
	x := s.NewIntVar(0, 3, "x")
	y := s.NewIntVar(0, 3, "y")

	outer := newProbeBuilder(func(sv *solver.Solver) solver.Decision {
		if !x.Bound() {
			// Solve y in a subsearch before deciding x.
			found := sv.NestedSolve(solver.NewAssignVariables([]*solver.IntVar{y}), true)
			if !found {
				sv.Fail()
			}
			// restore=true: the nested assignment is gone again.
			if y.Bound() {
				sv.Fail()
			}

			return solver.NewAssignDecision(x, x.Min())
		}

		return nil
	})

	found := s.Solve(outer)
	assert.True(t, found)
}

func TestNestedSolve_KeepRetainsAssignment(t *testing.T) {
	s := solver.NewSolver("nested-keep")
	x := s.NewIntVar(0, 3, "x")
	y := s.NewIntVar(0, 3, "y")

	builder := newProbeBuilder(func(sv *solver.Solver) solver.Decision {
		if !y.Bound() {
			found := sv.NestedSolve(solver.NewAssignVariables([]*solver.IntVar{y}), false)
			if !found || !y.Bound() {
				sv.Fail()
			}
		}
		if !x.Bound() {
			return solver.NewAssignDecision(x, x.Min())
		}

		return nil
	})

	found := s.Solve(builder)
	assert.True(t, found)
}

// probeBuilder adapts a closure into a DecisionBuilder.
type probeBuilder struct {
	next func(*solver.Solver) solver.Decision
}

func newProbeBuilder(next func(*solver.Solver) solver.Decision) solver.DecisionBuilder {
	return &probeBuilder{next: next}
}

func (b *probeBuilder) Next(s *solver.Solver) solver.Decision { return b.next(s) }

func (b *probeBuilder) AppendMonitors(*solver.Solver) []solver.SearchMonitor { return nil }

func TestTimeLimit_StopsSearchCleanly(t *testing.T) {
	s := solver.NewSolver("limited")
	vars := make([]*solver.IntVar, 8)
	for i := range vars {
		vars[i] = s.NewIntVar(0, 9, "")
	}

	// An exhausted budget stops at the first periodic check.
	found := s.Solve(solver.NewAssignVariables(vars),
		solver.NewTimeLimit(s, -time.Second), solver.NewEnumerateAll())

	assert.False(t, found)
	assert.Equal(t, solver.StateOutsideSearch, s.State())
}

func TestRestartMonitor_SearchStillCompletes(t *testing.T) {
	s := solver.NewSolver("restarting")
	x := s.NewIntVar(0, 2, "x")
	y := s.NewIntVar(0, 2, "y")
	s.AddConstraint(solver.NewNonEqual(s, x, y))

	restarts := 0
	probe := &restartProbe{count: &restarts}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x, y}),
		solver.NewRestartOnFailures(s, 1), solver.NewEnumerateAll(), probe)

	assert.True(t, found)
	assert.Positive(t, restarts)
}

type restartProbe struct {
	solver.MonitorBase
	count *int
}

func (p *restartProbe) RestartSearch() { *p.count++ }

func TestBranchSelector_SwitchBranches(t *testing.T) {
	s := solver.NewSolver("switching")
	x := s.NewIntVar(0, 5, "x")

	s.NewSearch(solver.NewAssignVariables([]*solver.IntVar{x}))
	s.SetBranchSelector(func(solver.Decision) solver.DecisionModification {
		return solver.SwitchBranches
	})

	// Every decision is reversed: each x=v attempt turns into x!=v, so the
	// first solution reached is the top of the domain.
	require.True(t, s.NextSolution())
	assert.Equal(t, int64(5), x.Value())
	s.EndSearch()
}

func TestSolutionVeto_FailsCandidates(t *testing.T) {
	s := solver.NewSolver("veto")
	x := s.NewIntVar(0, 2, "x")

	veto := &vetoMonitor{}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x}), veto)

	assert.False(t, found)
	assert.Equal(t, int64(0), s.Solutions())
	assert.Equal(t, 3, veto.asked) // every leaf was offered and rejected
}

type vetoMonitor struct {
	solver.MonitorBase
	asked int
}

func (m *vetoMonitor) AcceptSolution() bool {
	m.asked++

	return false
}
