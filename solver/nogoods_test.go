package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/solver"
)

func TestNoGood_RefutesLastOpenTerm(t *testing.T) {
	s := solver.NewSolver("nogood-refute")
	x := s.NewIntVar(0, 3, "x")
	y := s.NewIntVar(0, 3, "y")

	manager := solver.NewNoGoodManager(s)
	ng := manager.MakeNoGood()
	ng.AddEqualTerm(x, 1)
	ng.AddEqualTerm(y, 2)
	manager.AddNoGood(ng)

	rec := &solutionRecorder{vars: []*solver.IntVar{x, y}}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x, y}),
		manager, rec, solver.NewEnumerateAll())

	require.True(t, found)
	// 16 assignments minus the single forbidden one.
	assert.Equal(t, int64(15), s.Solutions())
	for _, sol := range rec.solutions {
		assert.False(t, sol[0] == 1 && sol[1] == 2, "forbidden pair reported")
	}
}

func TestNoGood_NotEqualTerms(t *testing.T) {
	s := solver.NewSolver("nogood-neq")
	x := s.NewIntVar(0, 1, "x")

	manager := solver.NewNoGoodManager(s)
	ng := manager.MakeNoGood()
	ng.AddNotEqualTerm(x, 0) // "x != 0" must not hold, i.e. x must be 0
	manager.AddNoGood(ng)

	rec := &solutionRecorder{vars: []*solver.IntVar{x}}
	found := s.Solve(solver.NewAssignVariables([]*solver.IntVar{x}),
		manager, rec, solver.NewEnumerateAll())

	require.True(t, found)
	assert.Equal(t, int64(1), s.Solutions())
	assert.Equal(t, int64(0), rec.solutions[0][0])
}

func TestNoGoodManager_PanicsOnEmptyNoGood(t *testing.T) {
	s := solver.NewSolver("nogood-empty")
	manager := solver.NewNoGoodManager(s)

	assert.Panics(t, func() { manager.AddNoGood(manager.MakeNoGood()) })
}
