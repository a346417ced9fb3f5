package sat

import "github.com/willf/bitset"

// Assignment holds the current value of every Boolean variable: unassigned,
// true or false. It is a single bitset over literal indices: the bit of a
// literal is set iff that literal is currently true, so the two bits of a
// variable's polarities form its 2-bit cell and polarity lookup is a bit
// flip away.
type Assignment struct {
	bits *bitset.BitSet
}

// NewAssignment creates an assignment sized for numVars variables, all
// unassigned.
func NewAssignment(numVars int) *Assignment {
	return &Assignment{bits: bitset.New(uint(2 * numVars))}
}

// Resize grows the assignment to numVars variables. Existing values keep.
func (a *Assignment) Resize(numVars int) {
	want := uint(2 * numVars)
	if want > 0 && a.bits.Len() < want {
		// bitset grows on Set; force capacity so Test stays in bounds.
		a.bits.Set(want - 1)
		a.bits.Clear(want - 1)
	}
}

// LiteralIsTrue reports whether l is assigned true.
func (a *Assignment) LiteralIsTrue(l Literal) bool { return a.bits.Test(uint(l)) }

// LiteralIsFalse reports whether l is assigned false.
func (a *Assignment) LiteralIsFalse(l Literal) bool { return a.bits.Test(uint(l.Negated())) }

// LiteralIsAssigned reports whether l's variable has a value.
func (a *Assignment) LiteralIsAssigned(l Literal) bool {
	return a.bits.Test(uint(l)) || a.bits.Test(uint(l.Negated()))
}

// VariableIsAssigned reports whether v has a value.
func (a *Assignment) VariableIsAssigned(v BooleanVariable) bool {
	return a.LiteralIsAssigned(NewLiteral(v, true))
}

// GetTrueLiteralForAssignedVariable returns the polarity of v that is true.
// Panics if v is unassigned (programmer error).
func (a *Assignment) GetTrueLiteralForAssignedVariable(v BooleanVariable) Literal {
	pos := NewLiteral(v, true)
	if a.bits.Test(uint(pos)) {
		return pos
	}
	if a.bits.Test(uint(pos.Negated())) {
		return pos.Negated()
	}
	panic("sat: variable is not assigned")
}

// assignLiteral makes l true. The caller guarantees l's variable was
// unassigned.
func (a *Assignment) assignLiteral(l Literal) { a.bits.Set(uint(l)) }

// unassignLiteral clears the value of l's variable, where l was the true
// polarity.
func (a *Assignment) unassignLiteral(l Literal) { a.bits.Clear(uint(l)) }
