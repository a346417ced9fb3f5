package lrat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/lrat"
	"github.com/katalvlaran/lvlsolve/sat"
)

func ptr(signed ...int) sat.ClausePtr {
	return sat.NewClausePtr(sat.Literals(signed...))
}

func TestChecker_RupInference_Accepts(t *testing.T) {
	c := lrat.NewChecker()

	c1 := ptr(+1, +2, +3)
	c2 := ptr(-1, +3)
	c3 := ptr(-2, +3)
	require.True(t, c.AddProblemClause(c1))
	require.True(t, c.AddProblemClause(c2))
	require.True(t, c.AddProblemClause(c3))

	// {3} follows by RUP: assume ¬3; c2 forces ¬1, c3 forces ¬2, and c1
	// goes empty. The chain is in unit propagation order.
	three := ptr(+3)
	require.True(t, c.AddInferredClause(three, []sat.ClausePtr{c2, c3, c1}))
	assert.True(t, c.Valid())
	assert.False(t, c.Complete())

	// {¬3} as a problem clause, then the empty clause completes the proof.
	notThree := ptr(-3)
	require.True(t, c.AddProblemClause(notThree))
	require.True(t, c.AddInferredClause(ptr(), []sat.ClausePtr{three, notThree}))

	assert.True(t, c.Complete())
	assert.True(t, c.Check())
}

func TestChecker_BrokenChain_IsSticky(t *testing.T) {
	c := lrat.NewChecker()

	c1 := ptr(+1, +2)
	require.True(t, c.AddProblemClause(c1))

	// {1} does not follow from {1,2} alone: under ¬1 the clause is not unit
	// to a conflict.
	assert.False(t, c.AddInferredClause(ptr(+1), []sat.ClausePtr{c1}))
	assert.False(t, c.Valid())
	assert.NotEmpty(t, c.ErrorMessage())

	// Failure is sticky: even a trivially fine step now fails.
	assert.False(t, c.AddProblemClause(ptr(+3)))
	assert.False(t, c.Check())
}

func TestChecker_ChainClauseNotUnit_Rejected(t *testing.T) {
	c := lrat.NewChecker()

	wide := ptr(+1, +2, +3)
	require.True(t, c.AddProblemClause(wide))

	// Proving {1}: under ¬1 the chain clause keeps two free literals.
	assert.False(t, c.AddInferredClause(ptr(+1), []sat.ClausePtr{wide}))
	assert.Contains(t, c.ErrorMessage(), "not unit")
}

func TestChecker_TautologyIsIgnored(t *testing.T) {
	c := lrat.NewChecker()

	require.True(t, c.AddProblemClause(ptr(+1, -1)))
	// Accepted without effect: the checker stays valid.
	assert.True(t, c.Valid())
}

func TestChecker_ExtraChainAfterConflict_Tolerated(t *testing.T) {
	c := lrat.NewChecker()

	a := ptr(+1)
	b := ptr(-1)
	require.True(t, c.AddProblemClause(a))
	require.True(t, c.AddProblemClause(b))

	require.True(t, c.AddInferredClause(ptr(), []sat.ClausePtr{a, b, a}))
	assert.True(t, c.Complete())
}

func TestChecker_CompleteProofIgnoresLaterSteps(t *testing.T) {
	c := lrat.NewChecker()

	a := ptr(+1)
	b := ptr(-1)
	require.True(t, c.AddProblemClause(a))
	require.True(t, c.AddProblemClause(b))
	require.True(t, c.AddInferredClause(ptr(), []sat.ClausePtr{a, b}))

	// Anything after completion is a no-op that reports success.
	assert.True(t, c.AddInferredClause(ptr(+7), nil))
	assert.True(t, c.Check())
}

func TestChecker_RatInference(t *testing.T) {
	c := lrat.NewChecker()
	c.EnableRatProofs()

	// {1} has the RAT property on pivot 1: the sole clause holding ¬1 is
	// c1, and the resolvent {1, 2} is closed by the problem clause c2.
	c1 := ptr(-1, +2)
	c2 := ptr(+1, +2)
	require.True(t, c.AddProblemClause(c1))
	require.True(t, c.AddProblemClause(c2))

	one := ptr(+1)
	ok := c.AddInferredClauseWithRat(one, nil, []lrat.RatClauses{
		{Resolvant: c1, RupClauses: []sat.ClausePtr{c2}},
	})
	require.True(t, ok, "error: %s", c.ErrorMessage())
	assert.True(t, c.Valid())
}

func TestChecker_RatMissingResolvant_Rejected(t *testing.T) {
	c := lrat.NewChecker()
	c.EnableRatProofs()

	c1 := ptr(-1, +2)
	c2 := ptr(-1, +3)
	require.True(t, c.AddProblemClause(c1))
	require.True(t, c.AddProblemClause(c2))

	// Two clauses contain ¬1 but the RAT chain names only one.
	ok := c.AddInferredClauseWithRat(ptr(+1), nil, []lrat.RatClauses{
		{Resolvant: c1},
	})
	assert.False(t, ok)
	assert.Contains(t, c.ErrorMessage(), "wrong number of resolvant clauses")
}

func TestChecker_RatDisabled_Rejected(t *testing.T) {
	c := lrat.NewChecker()

	c1 := ptr(-1, +2)
	require.True(t, c.AddProblemClause(c1))

	assert.False(t, c.AddInferredClauseWithRat(ptr(+1), nil, []lrat.RatClauses{
		{Resolvant: c1},
	}))
	assert.Contains(t, c.ErrorMessage(), "disabled")
}

func TestChecker_RewriteClause_AcceptsRupChain(t *testing.T) {
	c := lrat.NewChecker()
	c.EnableRatProofs()

	wide := sat.NewClausePtr(sat.Literals(+1, +2, +3))
	unit2 := ptr(-2)
	require.True(t, c.AddProblemClause(wide))
	require.True(t, c.AddProblemClause(unit2))

	// {1,3} follows: assume ¬1, ¬3; unit2 kills 2; wide conflicts.
	ok := c.RewriteClause(wide, sat.Literals(+1, +3), []sat.ClausePtr{unit2, wide})
	require.True(t, ok, "error: %s", c.ErrorMessage())
	assert.True(t, c.Valid())
}

func TestChecker_DeleteClauses_TolerantOfUnknown(t *testing.T) {
	c := lrat.NewChecker()
	c.EnableRatProofs()

	known := ptr(+1, +2)
	require.True(t, c.AddProblemClause(known))
	c.DeleteClauses([]sat.ClausePtr{known, ptr(+8, +9)})
	assert.True(t, c.Valid())
}

func TestStream_EndToEnd(t *testing.T) {
	problem := [][]sat.Literal{
		sat.Literals(+1, +2, +3),
		sat.Literals(-1, +3),
		sat.Literals(-2, +3),
		sat.Literals(-3),
	}

	proof := strings.Join([]string{
		"5 3 0 2 3 1 0",
		"6 0 5 4 0",
	}, "\n")

	checker := lrat.NewChecker()
	checker.EnableRatProofs()
	table := make(lrat.ClauseTable)
	lrat.LoadProblem(problem, checker, table)

	require.NoError(t, lrat.Stream(strings.NewReader(proof), checker, table))
	assert.True(t, checker.Check())
}

func TestStream_Deletion(t *testing.T) {
	problem := [][]sat.Literal{
		sat.Literals(+1),
		sat.Literals(-1),
		sat.Literals(+2, +3),
	}

	proof := strings.Join([]string{
		"4 d 3 0",
		"5 0 1 2 0",
	}, "\n")

	checker := lrat.NewChecker()
	checker.EnableRatProofs()
	table := make(lrat.ClauseTable)
	lrat.LoadProblem(problem, checker, table)

	require.NoError(t, lrat.Stream(strings.NewReader(proof), checker, table))
	assert.True(t, checker.Check())
}

func TestStream_UnknownReference_Fails(t *testing.T) {
	checker := lrat.NewChecker()
	table := make(lrat.ClauseTable)

	err := lrat.Stream(strings.NewReader("2 1 0 42 0"), checker, table)
	assert.ErrorIs(t, err, lrat.ErrClauseNotFound)
}

func TestStream_MalformedLine_Fails(t *testing.T) {
	checker := lrat.NewChecker()
	table := make(lrat.ClauseTable)

	err := lrat.Stream(strings.NewReader("7 1 2"), checker, table)
	assert.ErrorIs(t, err, lrat.ErrMalformedProof)
}

func TestStream_InvalidInference_SurfacesDiagnostic(t *testing.T) {
	problem := [][]sat.Literal{sat.Literals(+1, +2)}

	checker := lrat.NewChecker()
	checker.EnableRatProofs()
	table := make(lrat.ClauseTable)
	lrat.LoadProblem(problem, checker, table)

	err := lrat.Stream(strings.NewReader("2 1 0 1 0"), checker, table)
	assert.ErrorIs(t, err, lrat.ErrInvalidInference)
}
