package solver

import "fmt"

// IntExpr is the integer expression capability set. Expressions are
// polymorphic carriers of bounds that can be tightened from either side;
// Var materialises an expression into a variable constrained to equal it
// (cached, so repeated casts share one variable).
type IntExpr interface {
	Min() int64
	Max() int64
	Range() (int64, int64)
	SetMin(mi int64)
	SetMax(ma int64)
	SetRange(mi, ma int64)
	Bound() bool
	WhenRange(d *Demon)
	Var() *IntVar
}

// castVar materialises e into a cached variable tied to it by a link
// constraint.
type castCache struct {
	v *IntVar
}

func castVar(s *Solver, e IntExpr, cache *castCache, name string) *IntVar {
	if cache.v != nil {
		return cache.v
	}
	mi, ma := e.Range()
	v := s.NewIntVar(mi, ma, name)
	cache.v = v
	s.AddConstraint(newLinkExprVar(s, e, v))

	return v
}

// linkExprVar keeps a cast variable equal to its source expression by
// narrowing both sides whenever either moves.
type linkExprVar struct {
	s *Solver
	e IntExpr
	v *IntVar
}

func newLinkExprVar(s *Solver, e IntExpr, v *IntVar) *linkExprVar {
	return &linkExprVar{s: s, e: e, v: v}
}

func (c *linkExprVar) Post() {
	d := NewDemon("link", func(*Solver) { c.propagate() })
	c.e.WhenRange(d)
	c.v.WhenRange(d)
}

func (c *linkExprVar) InitialPropagate() { c.propagate() }

func (c *linkExprVar) propagate() {
	mi, ma := c.e.Range()
	c.v.SetRange(mi, ma)
	c.e.SetRange(c.v.Range())
}

func (c *linkExprVar) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintEquality)
	v.VisitIntegerVariableArgument(ArgumentTargetVariable, c.v)
	v.EndVisitConstraint(ConstraintEquality)
}

// ----- Opposite -----

// oppositeExpr is -e.
type oppositeExpr struct {
	s    *Solver
	e    IntExpr
	cast castCache
}

// NewOpposite returns the expression -e.
func NewOpposite(s *Solver, e IntExpr) IntExpr {
	if e == nil {
		panic("solver: nil expression")
	}

	return &oppositeExpr{s: s, e: e}
}

func (o *oppositeExpr) Min() int64 { return -o.e.Max() }

func (o *oppositeExpr) Max() int64 { return -o.e.Min() }

func (o *oppositeExpr) Range() (int64, int64) { return -o.e.Max(), -o.e.Min() }

func (o *oppositeExpr) SetMin(mi int64) { o.e.SetMax(-mi) }

func (o *oppositeExpr) SetMax(ma int64) { o.e.SetMin(-ma) }

func (o *oppositeExpr) SetRange(mi, ma int64) { o.e.SetRange(-ma, -mi) }

func (o *oppositeExpr) Bound() bool { return o.e.Bound() }

func (o *oppositeExpr) WhenRange(d *Demon) { o.e.WhenRange(d) }

func (o *oppositeExpr) Var() *IntVar { return castVar(o.s, o, &o.cast, "") }

func (o *oppositeExpr) String() string { return fmt.Sprintf("-(%v)", o.e) }

// ----- Sum of two expressions -----

// sumExpr is left + right.
type sumExpr struct {
	s           *Solver
	left, right IntExpr
	cast        castCache
}

// NewSum returns the expression left + right.
func NewSum(s *Solver, left, right IntExpr) IntExpr {
	if left == nil || right == nil {
		panic("solver: nil expression")
	}

	return &sumExpr{s: s, left: left, right: right}
}

func (e *sumExpr) Min() int64 { return e.left.Min() + e.right.Min() }

func (e *sumExpr) Max() int64 { return e.left.Max() + e.right.Max() }

func (e *sumExpr) Range() (int64, int64) { return e.Min(), e.Max() }

// SetMin pushes the slack onto each operand: left >= mi - right.Max().
func (e *sumExpr) SetMin(mi int64) {
	e.left.SetMin(mi - e.right.Max())
	e.right.SetMin(mi - e.left.Max())
}

func (e *sumExpr) SetMax(ma int64) {
	e.left.SetMax(ma - e.right.Min())
	e.right.SetMax(ma - e.left.Min())
}

func (e *sumExpr) SetRange(mi, ma int64) {
	e.SetMin(mi)
	e.SetMax(ma)
}

func (e *sumExpr) Bound() bool { return e.left.Bound() && e.right.Bound() }

func (e *sumExpr) WhenRange(d *Demon) {
	e.left.WhenRange(d)
	e.right.WhenRange(d)
}

func (e *sumExpr) Var() *IntVar { return castVar(e.s, e, &e.cast, "") }

// ----- Constant -----

// constExpr is a fixed value; SetMin/SetMax outside it fail.
type constExpr struct {
	s     *Solver
	value int64
	cast  castCache
}

// NewIntConstExpr returns the constant expression value.
func NewIntConstExpr(s *Solver, value int64) IntExpr {
	return &constExpr{s: s, value: value}
}

func (e *constExpr) Min() int64 { return e.value }

func (e *constExpr) Max() int64 { return e.value }

func (e *constExpr) Range() (int64, int64) { return e.value, e.value }

func (e *constExpr) SetMin(mi int64) {
	if mi > e.value {
		e.s.Fail()
	}
}

func (e *constExpr) SetMax(ma int64) {
	if ma < e.value {
		e.s.Fail()
	}
}

func (e *constExpr) SetRange(mi, ma int64) {
	e.SetMin(mi)
	e.SetMax(ma)
}

func (e *constExpr) Bound() bool { return true }

func (e *constExpr) WhenRange(*Demon) {}

func (e *constExpr) Var() *IntVar { return castVar(e.s, e, &e.cast, "") }

// ----- Boolean views over an index variable -----

// isEqualCstExpr is the 0/1 expression (index == value).
type isEqualCstExpr struct {
	s     *Solver
	index *IntVar
	value int64
	cast  castCache
}

// NewIsEqualCst returns the 0/1 expression (index == value).
func NewIsEqualCst(s *Solver, index *IntVar, value int64) IntExpr {
	if index == nil {
		panic("solver: nil variable")
	}

	return &isEqualCstExpr{s: s, index: index, value: value}
}

func (e *isEqualCstExpr) Min() int64 {
	if e.index.Bound() && e.index.Value() == e.value {
		return 1
	}

	return 0
}

func (e *isEqualCstExpr) Max() int64 {
	if e.index.Contains(e.value) {
		return 1
	}

	return 0
}

func (e *isEqualCstExpr) Range() (int64, int64) { return e.Min(), e.Max() }

func (e *isEqualCstExpr) SetMin(mi int64) {
	if mi >= 1 {
		e.index.SetValue(e.value)
	}
	if mi > 1 {
		e.s.Fail()
	}
}

func (e *isEqualCstExpr) SetMax(ma int64) {
	if ma <= 0 {
		e.index.RemoveValue(e.value)
	}
	if ma < 0 {
		e.s.Fail()
	}
}

func (e *isEqualCstExpr) SetRange(mi, ma int64) {
	e.SetMin(mi)
	e.SetMax(ma)
}

func (e *isEqualCstExpr) Bound() bool { return e.Min() == e.Max() }

func (e *isEqualCstExpr) WhenRange(d *Demon) { e.index.WhenDomain(d) }

func (e *isEqualCstExpr) Var() *IntVar { return castVar(e.s, e, &e.cast, "") }

// isBetweenExpr is the 0/1 expression (lo <= index <= hi).
type isBetweenExpr struct {
	s      *Solver
	index  *IntVar
	lo, hi int64
	cast   castCache
}

// NewIsBetween returns the 0/1 expression (lo <= index <= hi).
func NewIsBetween(s *Solver, index *IntVar, lo, hi int64) IntExpr {
	if index == nil {
		panic("solver: nil variable")
	}

	return &isBetweenExpr{s: s, index: index, lo: lo, hi: hi}
}

func (e *isBetweenExpr) Min() int64 {
	if e.index.Min() >= e.lo && e.index.Max() <= e.hi {
		return 1
	}

	return 0
}

func (e *isBetweenExpr) Max() int64 {
	if e.index.Max() < e.lo || e.index.Min() > e.hi {
		return 0
	}

	return 1
}

func (e *isBetweenExpr) Range() (int64, int64) { return e.Min(), e.Max() }

func (e *isBetweenExpr) SetMin(mi int64) {
	if mi >= 1 {
		e.index.SetRange(e.lo, e.hi)
	}
	if mi > 1 {
		e.s.Fail()
	}
}

func (e *isBetweenExpr) SetMax(ma int64) {
	if ma < 0 {
		e.s.Fail()
	}
	if ma == 0 {
		// The index must avoid [lo, hi]; only representable at the bounds.
		if e.index.Min() >= e.lo && e.index.Max() <= e.hi {
			e.s.Fail()
		}
		if e.index.Min() >= e.lo {
			e.index.SetMin(e.hi + 1)
		}
		if e.index.Max() <= e.hi {
			e.index.SetMax(e.lo - 1)
		}
	}
}

func (e *isBetweenExpr) SetRange(mi, ma int64) {
	e.SetMin(mi)
	e.SetMax(ma)
}

func (e *isBetweenExpr) Bound() bool { return e.Min() == e.Max() }

func (e *isBetweenExpr) WhenRange(d *Demon) { e.index.WhenRange(d) }

func (e *isBetweenExpr) Var() *IntVar { return castVar(e.s, e, &e.cast, "") }
