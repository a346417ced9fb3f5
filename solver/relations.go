package solver

// Relational and arithmetic constraints over integer expressions. Equality,
// the orderings, between and sum-equal are bounds-consistent: they tighten
// bounds only. NonEqual removes the bound value of one side from the other,
// and Member removes every value outside its list, so both can make holes.

// ----- x == y -----

type equalityConstraint struct {
	s           *Solver
	left, right IntExpr
}

// NewEquality constrains left == right.
func NewEquality(s *Solver, left, right IntExpr) Constraint {
	if left == nil || right == nil {
		panic("solver: nil expression")
	}

	return &equalityConstraint{s: s, left: left, right: right}
}

func (c *equalityConstraint) Post() {
	d := NewDemon("equality", func(*Solver) { c.propagate() })
	c.left.WhenRange(d)
	c.right.WhenRange(d)
}

func (c *equalityConstraint) InitialPropagate() { c.propagate() }

func (c *equalityConstraint) propagate() {
	c.left.SetRange(c.right.Range())
	c.right.SetRange(c.left.Range())
}

func (c *equalityConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintEquality)
	v.VisitIntegerExpressionArgument(ArgumentLeft, c.left)
	v.VisitIntegerExpressionArgument(ArgumentRight, c.right)
	v.EndVisitConstraint(ConstraintEquality)
}

// ----- x != y -----

type nonEqualConstraint struct {
	s           *Solver
	left, right *IntVar
}

// NewNonEqual constrains left != right.
func NewNonEqual(s *Solver, left, right *IntVar) Constraint {
	if left == nil || right == nil {
		panic("solver: nil variable")
	}

	return &nonEqualConstraint{s: s, left: left, right: right}
}

func (c *nonEqualConstraint) Post() {
	d := NewDemon("non_equal", func(*Solver) { c.propagate() })
	c.left.WhenBound(d)
	c.right.WhenBound(d)
}

func (c *nonEqualConstraint) InitialPropagate() { c.propagate() }

func (c *nonEqualConstraint) propagate() {
	if c.left.Bound() {
		c.right.RemoveValue(c.left.Value())
	}
	if c.right.Bound() {
		c.left.RemoveValue(c.right.Value())
	}
}

func (c *nonEqualConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintNonEqual)
	v.VisitIntegerVariableArgument(ArgumentLeft, c.left)
	v.VisitIntegerVariableArgument(ArgumentRight, c.right)
	v.EndVisitConstraint(ConstraintNonEqual)
}

// ----- x < y, x <= y and mirrors -----

type lessConstraint struct {
	s           *Solver
	left, right IntExpr
	strict      bool
}

// NewLess constrains left < right.
func NewLess(s *Solver, left, right IntExpr) Constraint {
	if left == nil || right == nil {
		panic("solver: nil expression")
	}

	return &lessConstraint{s: s, left: left, right: right, strict: true}
}

// NewLessOrEqual constrains left <= right.
func NewLessOrEqual(s *Solver, left, right IntExpr) Constraint {
	if left == nil || right == nil {
		panic("solver: nil expression")
	}

	return &lessConstraint{s: s, left: left, right: right}
}

// NewGreater constrains left > right.
func NewGreater(s *Solver, left, right IntExpr) Constraint {
	return NewLess(s, right, left)
}

// NewGreaterOrEqual constrains left >= right.
func NewGreaterOrEqual(s *Solver, left, right IntExpr) Constraint {
	return NewLessOrEqual(s, right, left)
}

func (c *lessConstraint) Post() {
	d := NewDemon("less", func(*Solver) { c.propagate() })
	c.left.WhenRange(d)
	c.right.WhenRange(d)
}

func (c *lessConstraint) InitialPropagate() { c.propagate() }

func (c *lessConstraint) propagate() {
	slack := int64(0)
	if c.strict {
		slack = 1
	}
	c.left.SetMax(c.right.Max() - slack)
	c.right.SetMin(c.left.Min() + slack)
}

func (c *lessConstraint) Accept(v ModelVisitor) {
	tag := ConstraintLessOrEqual
	if c.strict {
		tag = ConstraintLess
	}
	v.BeginVisitConstraint(tag)
	v.VisitIntegerExpressionArgument(ArgumentLeft, c.left)
	v.VisitIntegerExpressionArgument(ArgumentRight, c.right)
	v.EndVisitConstraint(tag)
}

// ----- lo <= e <= hi -----

type betweenConstraint struct {
	s      *Solver
	expr   IntExpr
	lo, hi int64
}

// NewBetween constrains lo <= expr <= hi.
func NewBetween(s *Solver, expr IntExpr, lo, hi int64) Constraint {
	if expr == nil {
		panic("solver: nil expression")
	}

	return &betweenConstraint{s: s, expr: expr, lo: lo, hi: hi}
}

func (c *betweenConstraint) Post() {}

func (c *betweenConstraint) InitialPropagate() {
	// Domains only shrink, so clipping once is enough.
	c.expr.SetRange(c.lo, c.hi)
}

func (c *betweenConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintBetween)
	v.VisitIntegerExpressionArgument(ArgumentExpression, c.expr)
	v.VisitIntegerArgument(ArgumentMinValue, c.lo)
	v.VisitIntegerArgument(ArgumentMaxValue, c.hi)
	v.EndVisitConstraint(ConstraintBetween)
}

// ----- x in values -----

type memberConstraint struct {
	s      *Solver
	v      *IntVar
	values []int64
}

// NewMember constrains v to take one of values.
// Returns ErrEmptyArgument on an empty value list: that is a malformed
// model, not an implicit failure.
func NewMember(s *Solver, v *IntVar, values []int64) (Constraint, error) {
	if v == nil {
		return nil, ErrNilVariable
	}
	if len(values) == 0 {
		return nil, ErrEmptyArgument
	}
	owned := make([]int64, len(values))
	copy(owned, values)

	return &memberConstraint{s: s, v: v, values: owned}, nil
}

func (c *memberConstraint) Post() {}

func (c *memberConstraint) InitialPropagate() {
	allowed := make(map[int64]struct{}, len(c.values))
	for _, val := range c.values {
		allowed[val] = struct{}{}
	}
	for it := c.v.NewDomainIterator(false); it.Ok(); it.Next() {
		if _, ok := allowed[it.Value()]; !ok {
			c.v.RemoveValue(it.Value())
		}
	}
}

func (c *memberConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintMember)
	v.VisitIntegerVariableArgument(ArgumentExpression, c.v)
	v.VisitIntegerArrayArgument(ArgumentValues, c.values)
	v.EndVisitConstraint(ConstraintMember)
}

// ----- sum(vars) == target -----

type sumEqualConstraint struct {
	s      *Solver
	vars   []*IntVar
	target *IntVar
}

// NewSumEqual constrains sum(vars) == target.
// Returns ErrEmptyArgument on an empty variable array.
func NewSumEqual(s *Solver, vars []*IntVar, target *IntVar) (Constraint, error) {
	if target == nil {
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

	return &sumEqualConstraint{s: s, vars: owned, target: target}, nil
}

func (c *sumEqualConstraint) Post() {
	d := NewDemon("sum_equal", func(*Solver) { c.propagate() })
	for _, v := range c.vars {
		v.WhenRange(d)
	}
	c.target.WhenRange(d)
}

func (c *sumEqualConstraint) InitialPropagate() { c.propagate() }

func (c *sumEqualConstraint) propagate() {
	var sumMin, sumMax int64
	for _, v := range c.vars {
		sumMin += v.Min()
		sumMax += v.Max()
	}
	c.target.SetRange(sumMin, sumMax)

	// Each term's bounds follow from the target and the other terms' slack.
	for _, v := range c.vars {
		otherMin := sumMin - v.Min()
		otherMax := sumMax - v.Max()
		v.SetRange(c.target.Min()-otherMax, c.target.Max()-otherMin)
	}
}

func (c *sumEqualConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintSumEqual)
	v.VisitIntegerVariableArrayArgument(ArgumentVariables, c.vars)
	v.VisitIntegerVariableArgument(ArgumentTargetVariable, c.target)
	v.EndVisitConstraint(ConstraintSumEqual)
}
