package sat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/sat"
)

func lit(signed int) sat.Literal { return sat.NewLiteralFromSigned(signed) }

func TestImplicationGraph_SymmetryInvariant(t *testing.T) {
	trail := sat.NewTrail(2)
	g := sat.NewImplicationGraph(trail, 2)

	// {1, 2}: ¬1 → 2 and ¬2 → 1.
	require.True(t, g.AddBinaryClause(lit(+1), lit(+2)))

	assert.Contains(t, g.Implications(lit(-1)), lit(+2))
	assert.Contains(t, g.Implications(lit(-2)), lit(+1))
}

func TestImplicationGraph_PropagateDirect(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+2), lit(+3)))

	trail.EnqueueSearchDecision(lit(+1))
	require.True(t, g.Propagate())

	assert.True(t, trail.Assignment().LiteralIsTrue(lit(+2)))
	assert.True(t, trail.Assignment().LiteralIsTrue(lit(+3)))

	// Trail order: 1 before 2 before 3.
	assert.Equal(t, lit(+1), trail.Literal(0))
	assert.Equal(t, lit(+2), trail.Literal(1))
	assert.Equal(t, lit(+3), trail.Literal(2))
}

func TestImplicationGraph_PropagateConflict(t *testing.T) {
	trail := sat.NewTrail(2)
	g := sat.NewImplicationGraph(trail, 2)

	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+1), lit(-2)))

	trail.EnqueueSearchDecision(lit(+1))
	assert.False(t, g.Propagate())
	assert.Len(t, trail.Conflict(), 2)
}

func TestAtMostOne_SmallGroupExpands(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	require.True(t, g.AddAtMostOne(sat.Literals(+1, +2, +3)))

	// Pairwise expansion: 1 → ¬2 and 1 → ¬3 are direct implications.
	assert.Contains(t, g.Implications(lit(+1)), lit(-2))
	assert.Contains(t, g.Implications(lit(+1)), lit(-3))

	trail.EnqueueSearchDecision(lit(+2))
	require.True(t, g.Propagate())
	assert.True(t, trail.Assignment().LiteralIsFalse(lit(+1)))
	assert.True(t, trail.Assignment().LiteralIsFalse(lit(+3)))
}

func TestAtMostOne_LargeGroupStaysCompact(t *testing.T) {
	const n = 16
	trail := sat.NewTrail(n)
	g := sat.NewImplicationGraph(trail, n, sat.WithAtMostOneMaxExpansionSize(4))

	group := make([]sat.Literal, n)
	for i := range group {
		group[i] = sat.NewLiteral(sat.BooleanVariable(i), true)
	}
	require.True(t, g.AddAtMostOne(group))

	// No pairwise implications were materialised.
	assert.Empty(t, g.Implications(group[0]))

	trail.EnqueueSearchDecision(group[5])
	require.True(t, g.Propagate())
	for i, l := range group {
		if i == 5 {
			assert.True(t, trail.Assignment().LiteralIsTrue(l))
			continue
		}
		assert.True(t, trail.Assignment().LiteralIsFalse(l), "member %d", i)
	}
}

func TestAtMostOne_SizeOneIsNoOp(t *testing.T) {
	trail := sat.NewTrail(1)
	g := sat.NewImplicationGraph(trail, 1)

	require.True(t, g.AddAtMostOne(sat.Literals(+1)))
	assert.Empty(t, g.Implications(lit(+1)))
	assert.Empty(t, g.Implications(lit(-1)))
}

func TestAtMostOne_SizeTwoIsBinaryImplication(t *testing.T) {
	trail := sat.NewTrail(2)
	g := sat.NewImplicationGraph(trail, 2)

	require.True(t, g.AddAtMostOne(sat.Literals(+1, +2)))

	// Exactly the implication pair 1 → ¬2, 2 → ¬1.
	assert.Equal(t, []sat.Literal{lit(-2)}, g.Implications(lit(+1)))
	assert.Equal(t, []sat.Literal{lit(-1)}, g.Implications(lit(+2)))
}

func TestDetectEquivalences_CycleCollapses(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	// 1 → 2 → 3 → 1: one equivalence class.
	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+2), lit(+3)))
	require.True(t, g.AddImplication(lit(+3), lit(+1)))

	require.True(t, g.DetectEquivalences())

	rep := g.RepresentativeOf(lit(+1))
	assert.Equal(t, rep, g.RepresentativeOf(lit(+2)))
	assert.Equal(t, rep, g.RepresentativeOf(lit(+3)))
	assert.Equal(t, lit(+1), rep) // smallest index wins

	// The negations share the symmetric representative.
	assert.Equal(t, lit(-1), g.RepresentativeOf(lit(-2)))

	// Asserting any member true fixes the whole class.
	trail.EnqueueSearchDecision(lit(+2))
	require.True(t, g.Propagate())
	assert.True(t, trail.Assignment().LiteralIsTrue(lit(+1)))
	assert.True(t, trail.Assignment().LiteralIsTrue(lit(+3)))
}

func TestDetectEquivalences_XEquivNotX_IsUnsat(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	// 1 → 2 → ¬1 and ¬1 → 3 → 1: variable 1 sits in one component with
	// its own negation.
	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+2), lit(-1)))
	require.True(t, g.AddImplication(lit(-1), lit(+3)))
	require.True(t, g.AddImplication(lit(+3), lit(+1)))

	assert.False(t, g.DetectEquivalences())
}

func TestTransitiveReduction_RemovesShadowedEdge(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+2), lit(+3)))
	require.True(t, g.AddImplication(lit(+1), lit(+3))) // shadowed by 1→2→3

	sat1, completed := g.ComputeTransitiveReduction(1 << 20)
	require.True(t, sat1)
	require.True(t, completed)

	assert.ElementsMatch(t, []sat.Literal{lit(+2)}, g.Implications(lit(+1)))
	// The symmetric edge ¬3 → ¬1 went with it.
	assert.ElementsMatch(t, []sat.Literal{lit(-2)}, g.Implications(lit(-3)))
}

func TestTransitiveReduction_FailedLiteralProbing(t *testing.T) {
	trail := sat.NewTrail(2)
	g := sat.NewImplicationGraph(trail, 2)

	// 1 → 2 and 1 → ¬2: literal 1 cannot hold.
	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+1), lit(-2)))

	ok, completed := g.ComputeTransitiveReduction(1 << 20)
	require.True(t, ok)
	require.True(t, completed)

	assert.True(t, trail.Assignment().LiteralIsTrue(lit(-1)))
	assert.Equal(t, 0, trail.AssignmentLevel(lit(-1)))
}

func TestTransitiveReduction_BudgetAbortsCleanly(t *testing.T) {
	trail := sat.NewTrail(4)
	g := sat.NewImplicationGraph(trail, 4)

	require.True(t, g.AddImplication(lit(+1), lit(+2)))
	require.True(t, g.AddImplication(lit(+2), lit(+3)))
	require.True(t, g.AddImplication(lit(+3), lit(+4)))
	require.True(t, g.AddImplication(lit(+1), lit(+4)))

	ok, completed := g.ComputeTransitiveReduction(1)
	require.True(t, ok)
	assert.False(t, completed)

	// Whatever was removed stayed symmetric: a → b iff ¬b → ¬a.
	for signed := -4; signed <= 4; signed++ {
		if signed == 0 {
			continue
		}
		a := lit(signed)
		for _, b := range g.Implications(a) {
			assert.Contains(t, g.Implications(b.Negated()), a.Negated(),
				"edge %v -> %v lost its mirror", a, b)
		}
	}
}

func TestCliqueExtension_GrowsSeed(t *testing.T) {
	trail := sat.NewTrail(3)
	g := sat.NewImplicationGraph(trail, 3)

	// 1 → ¬3 and 2 → ¬3: literal 3 conflicts with both seed members.
	require.True(t, g.AddImplication(lit(+1), lit(-3)))
	require.True(t, g.AddImplication(lit(+2), lit(-3)))

	extended := g.ExtendAtMostOne(sat.Literals(+1, +2), 1<<20)

	assert.Contains(t, extended, lit(+1))
	assert.Contains(t, extended, lit(+2))
	assert.Contains(t, extended, lit(+3))
}

func TestFixLiteral_ConflictIsUnsat(t *testing.T) {
	trail := sat.NewTrail(1)
	g := sat.NewImplicationGraph(trail, 1)

	require.True(t, g.FixLiteral(lit(+1), nil))
	assert.True(t, g.FixLiteral(lit(+1), nil)) // idempotent
	assert.False(t, g.FixLiteral(lit(-1), nil))
}
