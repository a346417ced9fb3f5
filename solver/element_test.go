package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/solver"
)

func TestElementConst_SetMin_PrunesIndex(t *testing.T) {
	s := solver.NewSolver("element-const")
	index := s.NewIntVar(0, 3, "i")

	x, err := solver.NewElementConst(s, []int64{0, 1, 2, 3}, index)
	require.NoError(t, err)

	x.SetMin(2)
	assert.Equal(t, int64(2), index.Min())
}

func TestElementConst_NonMonotone_RemovesIndices(t *testing.T) {
	s := solver.NewSolver("element-jagged")
	index := s.NewIntVar(0, 3, "i")

	x, err := solver.NewElementConst(s, []int64{5, 1, 7, 1}, index)
	require.NoError(t, err)

	x.SetMax(4) // values 5 and 7 become impossible
	assert.False(t, index.Contains(0))
	assert.False(t, index.Contains(2))
	assert.True(t, index.Contains(1))
	assert.True(t, index.Contains(3))
	assert.Equal(t, int64(1), x.Max())
}

func TestElementConst_EmptyValues_IsMalformed(t *testing.T) {
	s := solver.NewSolver("element-empty")
	index := s.NewIntVar(0, 3, "i")

	_, err := solver.NewElementConst(s, nil, index)
	assert.ErrorIs(t, err, solver.ErrEmptyArgument)
}

func TestElementConst_AllEqual_BecomesConstant(t *testing.T) {
	s := solver.NewSolver("element-const-pattern")
	index := s.NewIntVar(0, 2, "i")

	x, err := solver.NewElementConst(s, []int64{4, 4, 4}, index)
	require.NoError(t, err)

	assert.True(t, x.Bound())
	assert.Equal(t, int64(4), x.Min())
}

func TestElementConst_SingletonOne_BecomesIsEqual(t *testing.T) {
	s := solver.NewSolver("element-singleton")
	index := s.NewIntVar(0, 3, "i")

	x, err := solver.NewElementConst(s, []int64{0, 0, 1, 0}, index)
	require.NoError(t, err)

	// Forcing the expression to 1 pins the index on the single one.
	x.SetMin(1)
	assert.True(t, index.Bound())
	assert.Equal(t, int64(2), index.Value())
}

func TestElementConst_ContiguousOnes_BecomesIsBetween(t *testing.T) {
	s := solver.NewSolver("element-block")
	index := s.NewIntVar(0, 4, "i")

	x, err := solver.NewElementConst(s, []int64{0, 1, 1, 1, 0}, index)
	require.NoError(t, err)

	x.SetMin(1)
	assert.Equal(t, int64(1), index.Min())
	assert.Equal(t, int64(3), index.Max())
}

func TestElementEqual_PropagatesBothWays(t *testing.T) {
	s := solver.NewSolver("element-var")
	vars := []*solver.IntVar{
		s.NewIntVar(0, 0, "v0"),
		s.NewIntVar(1, 1, "v1"),
		s.NewIntVar(2, 2, "v2"),
		s.NewIntVar(3, 3, "v3"),
	}
	index := s.NewIntVar(0, 3, "i")
	target := s.NewIntVar(-10, 10, "x")

	c, err := solver.NewElementEqual(s, vars, index, target)
	require.NoError(t, err)
	solver.PostAndPropagate(s, c)

	// The target tightens to the span of the array.
	assert.Equal(t, int64(0), target.Min())
	assert.Equal(t, int64(3), target.Max())

	// Raising the target floor prunes the low indices.
	target.SetMin(2)
	assert.Equal(t, int64(2), index.Min())
}

func TestElementEqual_BoundIndex_LinksVariable(t *testing.T) {
	s := solver.NewSolver("element-bound")
	vars := []*solver.IntVar{
		s.NewIntVar(0, 9, "v0"),
		s.NewIntVar(0, 9, "v1"),
	}
	index := s.NewIntVar(0, 1, "i")
	target := s.NewIntVar(0, 9, "x")

	c, err := solver.NewElementEqual(s, vars, index, target)
	require.NoError(t, err)
	solver.PostAndPropagate(s, c)

	index.SetValue(1)
	target.SetRange(3, 5)

	assert.Equal(t, int64(3), vars[1].Min())
	assert.Equal(t, int64(5), vars[1].Max())
	assert.Equal(t, int64(9), vars[0].Max()) // the unselected slot is free
}

func TestElementEqual_EmptyArray_IsMalformed(t *testing.T) {
	s := solver.NewSolver("element-var-empty")
	index := s.NewIntVar(0, 3, "i")
	target := s.NewIntVar(0, 3, "x")

	_, err := solver.NewElementEqual(s, nil, index, target)
	assert.ErrorIs(t, err, solver.ErrEmptyArgument)
}

func TestAllDifferent_ForcesLastValue(t *testing.T) {
	s := solver.NewSolver("alldiff")
	vars := make([]*solver.IntVar, 4)
	for i := range vars {
		vars[i] = s.NewIntVar(0, 3, "")
	}

	c, err := solver.NewAllDifferent(s, vars)
	require.NoError(t, err)
	solver.PostAndPropagate(s, c)

	vars[0].SetValue(0)
	vars[1].SetValue(1)
	vars[2].SetValue(2)

	assert.True(t, vars[3].Bound())
	assert.Equal(t, int64(3), vars[3].Value())
}

func TestSumEqual_BoundsPropagation(t *testing.T) {
	s := solver.NewSolver("sum")
	a := s.NewIntVar(0, 5, "a")
	b := s.NewIntVar(0, 5, "b")
	total := s.NewIntVar(8, 8, "t")

	c, err := solver.NewSumEqual(s, []*solver.IntVar{a, b}, total)
	require.NoError(t, err)
	solver.PostAndPropagate(s, c)

	// a + b = 8 with both at most 5 forces both at least 3.
	assert.Equal(t, int64(3), a.Min())
	assert.Equal(t, int64(3), b.Min())
}
