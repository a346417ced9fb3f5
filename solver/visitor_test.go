package solver_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/solver"
)

// buildSampleModel posts one constraint of each rebuildable flavor.
func buildSampleModel(s *solver.Solver) []*solver.IntVar {
	x := s.NewIntVar(0, 9, "x")
	y := s.NewIntVar(0, 9, "y")
	z := s.NewIntVar(0, 20, "z")

	alldiff, err := solver.NewAllDifferent(s, []*solver.IntVar{x, y})
	if err != nil {
		panic(err)
	}
	s.AddConstraint(alldiff)
	s.AddConstraint(solver.NewLess(s, x, y))

	sum, err := solver.NewSumEqual(s, []*solver.IntVar{x, y}, z)
	if err != nil {
		panic(err)
	}
	s.AddConstraint(sum)
	s.AddConstraint(solver.NewBetween(s, z, 5, 15))

	member, err := solver.NewMember(s, x, []int64{1, 3, 5})
	if err != nil {
		panic(err)
	}
	s.AddConstraint(member)

	return []*solver.IntVar{x, y, z}
}

func traceOf(s *solver.Solver, constraints []solver.Constraint) []solver.TraceEvent {
	tv := solver.NewTraceVisitor()
	tv.BeginVisitModel(s.Name())
	for _, c := range constraints {
		c.Accept(tv)
	}
	tv.EndVisitModel()

	return tv.Events
}

func TestVisitor_RoundTrip_TraceEquality(t *testing.T) {
	s := solver.NewSolver("round-trip")
	buildSampleModel(s)

	original := traceOf(s, s.Constraints())

	rebuilt, err := solver.RebuildFromTrace(s, original)
	require.NoError(t, err)
	require.Len(t, rebuilt, len(s.Constraints()))

	again := traceOf(s, rebuilt)

	// Variables and expressions are identity-compared: the rebuilt
	// constraints reference the same solver objects.
	diff := cmp.Diff(original, again,
		cmp.Comparer(func(a, b *solver.IntVar) bool { return a == b }))
	assert.Empty(t, diff)
}

func TestVisitor_Rebuild_ReportsEveryUnknownTag(t *testing.T) {
	s := solver.NewSolver("unknown-tags")

	events := []solver.TraceEvent{
		{Kind: "begin_constraint", Tag: solver.ConstraintCumulative},
		{Kind: "end_constraint", Tag: solver.ConstraintCumulative},
		{Kind: "begin_constraint", Tag: solver.ConstraintNoCycle},
		{Kind: "end_constraint", Tag: solver.ConstraintNoCycle},
	}
	_, err := solver.RebuildFromTrace(s, events)

	require.Error(t, err)
	// Both defects surface in one pass.
	assert.Contains(t, err.Error(), solver.ConstraintCumulative)
	assert.Contains(t, err.Error(), solver.ConstraintNoCycle)
}

func TestVisitor_SolverAccept_WalksWholeModel(t *testing.T) {
	s := solver.NewSolver("walk")
	buildSampleModel(s)

	tv := solver.NewTraceVisitor()
	s.Accept(tv)

	require.NotEmpty(t, tv.Events)
	assert.Equal(t, "begin_model", tv.Events[0].Kind)
	assert.Equal(t, "end_model", tv.Events[len(tv.Events)-1].Kind)

	var tags []string
	for _, ev := range tv.Events {
		if ev.Kind == "begin_constraint" {
			tags = append(tags, ev.Tag)
		}
	}
	assert.Equal(t, []string{
		solver.ConstraintAllDifferent,
		solver.ConstraintLess,
		solver.ConstraintSumEqual,
		solver.ConstraintBetween,
		solver.ConstraintMember,
	}, tags)
}
