package sat

import (
	"fmt"
	"strings"
)

// BooleanVariable is a dense 0-based variable index.
type BooleanVariable int32

// NoVariable is the sentinel for an absent variable.
const NoVariable BooleanVariable = -1

// Literal is a Boolean variable or its negation in the "index" encoding: for
// a variable x, x<<1 is the positive literal and x<<1|1 the negative one, so
// negation is a single bit flip and literals index arrays densely.
//
// The "signed" encoding used by DIMACS files maps variable x to x+1 positive
// and -(x+1) negative; see NewLiteralFromSigned and Signed.
type Literal int32

// NoLiteral is the sentinel for an absent literal.
const NoLiteral Literal = -1

// NewLiteral builds a literal from a variable and a polarity.
func NewLiteral(v BooleanVariable, positive bool) Literal {
	if positive {
		return Literal(v << 1)
	}

	return Literal(v<<1 | 1)
}

// NewLiteralFromSigned converts the signed (DIMACS) encoding.
// Panics on 0, which is the clause terminator, not a literal.
func NewLiteralFromSigned(s int) Literal {
	if s == 0 {
		panic("sat: signed literal 0 is undefined")
	}
	if s > 0 {
		return NewLiteral(BooleanVariable(s-1), true)
	}

	return NewLiteral(BooleanVariable(-s-1), false)
}

// Variable returns the underlying variable.
func (l Literal) Variable() BooleanVariable { return BooleanVariable(l >> 1) }

// IsPositive reports whether l is the positive polarity of its variable.
func (l Literal) IsPositive() bool { return l&1 == 0 }

// Negated returns the literal of the same variable with opposite polarity.
func (l Literal) Negated() Literal { return l ^ 1 }

// Index returns l as a dense non-negative array index.
func (l Literal) Index() int { return int(l) }

// Signed returns the signed (DIMACS) encoding of l.
func (l Literal) Signed() int {
	if l.IsPositive() {
		return int(l.Variable()) + 1
	}

	return -(int(l.Variable()) + 1)
}

// String formats l in the signed notation, e.g. "+3" or "-7".
func (l Literal) String() string {
	if l == NoLiteral {
		return "<none>"
	}

	return fmt.Sprintf("%+d", l.Signed())
}

// Literals builds a slice of literals from signed values. Convenient in
// tests: Literals(+1, -4, +3) is the clause with variables 0 and 2 positive
// and variable 3 negative.
func Literals(signed ...int) []Literal {
	out := make([]Literal, len(signed))
	for i, s := range signed {
		out[i] = NewLiteralFromSigned(s)
	}

	return out
}

// LiteralsString formats a clause for diagnostics: "[+1 -4 +3]".
func LiteralsString(lits []Literal) string {
	parts := make([]string, len(lits))
	for i, l := range lits {
		parts[i] = l.String()
	}

	return "[" + strings.Join(parts, " ") + "]"
}
