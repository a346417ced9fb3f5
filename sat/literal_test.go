package sat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/katalvlaran/lvlsolve/sat"
)

func TestLiteral_Encodings(t *testing.T) {
	pos := sat.NewLiteral(3, true)
	neg := sat.NewLiteral(3, false)

	assert.Equal(t, sat.BooleanVariable(3), pos.Variable())
	assert.Equal(t, sat.BooleanVariable(3), neg.Variable())
	assert.True(t, pos.IsPositive())
	assert.False(t, neg.IsPositive())
	assert.Equal(t, neg, pos.Negated())
	assert.Equal(t, pos, neg.Negated())
	assert.Equal(t, 4, pos.Signed())
	assert.Equal(t, -4, neg.Signed())
}

func TestLiteral_SignedRoundTrip(t *testing.T) {
	for _, signed := range []int{1, -1, 7, -7, 100, -100} {
		l := sat.NewLiteralFromSigned(signed)
		assert.Equal(t, signed, l.Signed())
	}
}

func TestLiteral_SignedZeroPanics(t *testing.T) {
	assert.Panics(t, func() { sat.NewLiteralFromSigned(0) })
}

func TestLiterals_Helper(t *testing.T) {
	clause := sat.Literals(+1, -4, +3)
	assert.Equal(t, sat.BooleanVariable(0), clause[0].Variable())
	assert.True(t, clause[0].IsPositive())
	assert.Equal(t, sat.BooleanVariable(3), clause[1].Variable())
	assert.False(t, clause[1].IsPositive())
	assert.Equal(t, "[+1 -4 +3]", sat.LiteralsString(clause))
}

func TestAssignment_TwoBitCells(t *testing.T) {
	a := sat.NewAssignment(4)
	l := sat.NewLiteral(2, true)

	assert.False(t, a.LiteralIsAssigned(l))

	// Assignment goes through the trail in real use; here we exercise the
	// trail's enqueue to keep the cells consistent.
	trail := sat.NewTrail(4)
	trail.EnqueueWithUnitReason(l)

	assert.True(t, trail.Assignment().LiteralIsTrue(l))
	assert.True(t, trail.Assignment().LiteralIsFalse(l.Negated()))
	assert.True(t, trail.Assignment().VariableIsAssigned(2))
	assert.Equal(t, l, trail.Assignment().GetTrueLiteralForAssignedVariable(2))
}

func TestTrail_UntrailRevertsAssignments(t *testing.T) {
	trail := sat.NewTrail(3)

	trail.EnqueueWithUnitReason(sat.NewLiteral(0, true))
	trail.EnqueueSearchDecision(sat.NewLiteral(1, false))
	trail.EnqueueSearchDecision(sat.NewLiteral(2, true))

	assert.Equal(t, 3, trail.Index())
	assert.Equal(t, 2, trail.CurrentDecisionLevel())

	trail.BacktrackToLevel(1)
	assert.Equal(t, 2, trail.Index())
	assert.True(t, trail.Assignment().VariableIsAssigned(1))
	assert.False(t, trail.Assignment().VariableIsAssigned(2))

	// Level 0 facts survive a full backtrack.
	trail.BacktrackToLevel(0)
	assert.Equal(t, 1, trail.Index())
	assert.True(t, trail.Assignment().LiteralIsTrue(sat.NewLiteral(0, true)))
}

func TestClausePtr_ValueIdentity(t *testing.T) {
	a := sat.NewLiteral(0, true)
	b := sat.NewLiteral(1, false)

	assert.Equal(t, sat.BinaryClausePtr(a, b), sat.BinaryClausePtr(b, a))
	assert.Equal(t, sat.UnitClausePtr(a), sat.UnitClausePtr(a))
	assert.NotEqual(t, sat.UnitClausePtr(a), sat.UnitClausePtr(b))
	assert.Equal(t, sat.EmptyClausePtr(), sat.EmptyClausePtr())

	// Heap clauses are identity-compared.
	c1 := sat.NewClause(sat.Literals(+1, +2, +3))
	c2 := sat.NewClause(sat.Literals(+1, +2, +3))
	assert.True(t, sat.NaryClausePtr(c1) != sat.NaryClausePtr(c2))
	assert.Equal(t, sat.NaryClausePtr(c1), sat.NaryClausePtr(c1))
}
