package solver

import "fmt"

// Element constraints: target = vars[index] over a variable array, and the
// expression values[index] over a constant array with monotone fast paths
// and pattern conversion.

// ----- target == vars[index] -----

// elementEqualConstraint maintains target = vars[index] with cached support
// indices: minSupport witnesses the current target minimum, maxSupport the
// maximum. Supports are rescanned only when invalidated.
type elementEqualConstraint struct {
	s      *Solver
	vars   []*IntVar
	index  *IntVar
	target *IntVar

	minSupport int64 // reversible
	maxSupport int64 // reversible
}

// NewElementEqual constrains target == vars[index].
// Returns ErrEmptyArgument on an empty variable array (malformed model).
func NewElementEqual(s *Solver, vars []*IntVar, index, target *IntVar) (Constraint, error) {
	if index == nil || target == nil {
		return nil, ErrNilVariable
	}
	if len(vars) == 0 {
		return nil, ErrEmptyArgument
	}
	for _, v := range vars {
		if v == nil {
			return nil, ErrNilVariable
		}
	}
	owned := make([]*IntVar, len(vars))
	copy(owned, vars)

	return &elementEqualConstraint{
		s: s, vars: owned, index: index, target: target,
		minSupport: -1, maxSupport: -1,
	}, nil
}

func (c *elementEqualConstraint) Post() {
	d := NewDemon("element", func(*Solver) { c.propagate() })
	c.index.WhenDomain(d)
	c.target.WhenRange(d)
	for _, v := range c.vars {
		v.WhenRange(d)
	}
}

func (c *elementEqualConstraint) InitialPropagate() {
	c.index.SetRange(0, int64(len(c.vars)-1))
	c.propagate()
}

func (c *elementEqualConstraint) propagate() {
	// Prune index values whose variable cannot meet the target.
	for it := c.index.NewDomainIterator(false); it.Ok(); it.Next() {
		j := it.Value()
		if c.vars[j].Min() > c.target.Max() || c.vars[j].Max() < c.target.Min() {
			c.index.RemoveValue(j)
		}
	}

	if c.index.Bound() {
		v := c.vars[c.index.Value()]
		v.SetRange(c.target.Range())
		c.target.SetRange(v.Range())

		return
	}

	// The target bounds are witnessed by the support indices; rescan only
	// when a support is gone or stopped witnessing its bound.
	if !c.supportIsValid(c.minSupport) || c.vars[c.minSupport].Min() > c.target.Min() {
		c.rescanMinSupport()
	}
	if !c.supportIsValid(c.maxSupport) || c.vars[c.maxSupport].Max() < c.target.Max() {
		c.rescanMaxSupport()
	}
	c.target.SetMin(c.vars[c.minSupport].Min())
	c.target.SetMax(c.vars[c.maxSupport].Max())
}

func (c *elementEqualConstraint) supportIsValid(support int64) bool {
	return support >= 0 && c.index.Contains(support)
}

func (c *elementEqualConstraint) rescanMinSupport() {
	best := int64(-1)
	for it := c.index.NewDomainIterator(false); it.Ok(); it.Next() {
		j := it.Value()
		if best < 0 || c.vars[j].Min() < c.vars[best].Min() {
			best = j
		}
	}
	if best < 0 {
		c.s.Fail()
	}
	c.s.SaveAndSetInt64(&c.minSupport, best)
}

func (c *elementEqualConstraint) rescanMaxSupport() {
	best := int64(-1)
	for it := c.index.NewDomainIterator(false); it.Ok(); it.Next() {
		j := it.Value()
		if best < 0 || c.vars[j].Max() > c.vars[best].Max() {
			best = j
		}
	}
	if best < 0 {
		c.s.Fail()
	}
	c.s.SaveAndSetInt64(&c.maxSupport, best)
}

func (c *elementEqualConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintElementEqual)
	v.VisitIntegerVariableArrayArgument(ArgumentVariables, c.vars)
	v.VisitIntegerVariableArgument(ArgumentIndex, c.index)
	v.VisitIntegerVariableArgument(ArgumentTargetVariable, c.target)
	v.EndVisitConstraint(ConstraintElementEqual)
}

// ----- values[index] as an expression -----

// NewElementConst returns the expression values[index]. Degenerate value
// patterns convert to cheaper expressions: an all-equal array is a constant,
// a 0/1 array that is all ones is the constant 1, a contiguous block of ones
// is (lo <= index <= hi), a singleton one is (index == k).
// Returns ErrEmptyArgument on an empty value array (malformed model).
func NewElementConst(s *Solver, values []int64, index *IntVar) (IntExpr, error) {
	if index == nil {
		return nil, ErrNilVariable
	}
	if len(values) == 0 {
		return nil, ErrEmptyArgument
	}
	s.AddConstraint(NewBetween(s, index, 0, int64(len(values)-1)))

	if e, ok := convertConstPattern(s, values, index); ok {
		return e, nil
	}

	owned := make([]int64, len(values))
	copy(owned, values)

	return &elementConstExpr{
		s:             s,
		values:        owned,
		index:         index,
		nonDecreasing: isNonDecreasing(owned),
		nonIncreasing: isNonIncreasing(owned),
	}, nil
}

func convertConstPattern(s *Solver, values []int64, index *IntVar) (IntExpr, bool) {
	allEqual := true
	zeroOne := true
	ones := 0
	firstOne, lastOne := -1, -1
	for i, val := range values {
		if val != values[0] {
			allEqual = false
		}
		switch val {
		case 1:
			ones++
			if firstOne < 0 {
				firstOne = i
			}
			lastOne = i
		case 0:
		default:
			zeroOne = false
		}
	}

	if allEqual {
		return NewIntConstExpr(s, values[0]), true
	}
	if !zeroOne {
		return nil, false
	}
	switch {
	case ones == 1:
		return NewIsEqualCst(s, index, int64(firstOne)), true
	case lastOne-firstOne+1 == ones:
		// Ones form one contiguous block.
		return NewIsBetween(s, index, int64(firstOne), int64(lastOne)), true
	default:
		return nil, false
	}
}

func isNonDecreasing(values []int64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}

	return true
}

func isNonIncreasing(values []int64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			return false
		}
	}

	return true
}

// elementConstExpr is the general values[index] expression. Monotone arrays
// get linear-scan bound updates; arbitrary arrays fall back to a full rescan
// of the index domain.
type elementConstExpr struct {
	s      *Solver
	values []int64
	index  *IntVar
	cast   castCache

	nonDecreasing bool
	nonIncreasing bool
}

func (e *elementConstExpr) legalIndexRange() (int64, int64) {
	lo := e.index.Min()
	hi := e.index.Max()
	if lo < 0 {
		lo = 0
	}
	if n := int64(len(e.values) - 1); hi > n {
		hi = n
	}
	if lo > hi {
		e.s.Fail()
	}

	return lo, hi
}

func (e *elementConstExpr) Min() int64 {
	lo, hi := e.legalIndexRange()
	if e.nonDecreasing {
		return e.values[lo]
	}
	if e.nonIncreasing {
		return e.values[hi]
	}
	best := e.values[lo]
	for j := lo; j <= hi; j++ {
		if e.index.Contains(j) && e.values[j] < best {
			best = e.values[j]
		}
	}

	return best
}

func (e *elementConstExpr) Max() int64 {
	lo, hi := e.legalIndexRange()
	if e.nonDecreasing {
		return e.values[hi]
	}
	if e.nonIncreasing {
		return e.values[lo]
	}
	best := e.values[hi]
	for j := lo; j <= hi; j++ {
		if e.index.Contains(j) && e.values[j] > best {
			best = e.values[j]
		}
	}

	return best
}

func (e *elementConstExpr) Range() (int64, int64) { return e.Min(), e.Max() }

// SetMin removes the index values mapping below mi. On a non-decreasing
// array this is one linear scan from the low end.
func (e *elementConstExpr) SetMin(mi int64) {
	lo, hi := e.legalIndexRange()
	if e.nonDecreasing {
		j := lo
		for j <= hi && e.values[j] < mi {
			j++
		}
		if j > hi {
			e.s.Fail()
		}
		e.index.SetMin(j)

		return
	}
	for j := lo; j <= hi; j++ {
		if e.values[j] < mi {
			e.index.RemoveValue(j)
		}
	}
}

// SetMax removes the index values mapping above ma; mirrored fast path.
func (e *elementConstExpr) SetMax(ma int64) {
	lo, hi := e.legalIndexRange()
	if e.nonDecreasing {
		j := hi
		for j >= lo && e.values[j] > ma {
			j--
		}
		if j < lo {
			e.s.Fail()
		}
		e.index.SetMax(j)

		return
	}
	for j := lo; j <= hi; j++ {
		if e.values[j] > ma {
			e.index.RemoveValue(j)
		}
	}
}

func (e *elementConstExpr) SetRange(mi, ma int64) {
	e.SetMin(mi)
	e.SetMax(ma)
}

func (e *elementConstExpr) Bound() bool { return e.Min() == e.Max() }

func (e *elementConstExpr) WhenRange(d *Demon) { e.index.WhenDomain(d) }

func (e *elementConstExpr) Var() *IntVar { return castVar(e.s, e, &e.cast, "") }

func (e *elementConstExpr) String() string {
	return fmt.Sprintf("Element(%v, %v)", e.values, e.index)
}
