package solver

// allDifferentConstraint enforces pairwise distinctness with value-based
// propagation: the moment a variable binds, its value leaves every other
// domain.
type allDifferentConstraint struct {
	s    *Solver
	vars []*IntVar
}

// NewAllDifferent constrains all vars to take pairwise distinct values.
// Returns ErrEmptyArgument on an empty variable array (malformed model).
func NewAllDifferent(s *Solver, vars []*IntVar) (Constraint, error) {
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

	return &allDifferentConstraint{s: s, vars: owned}, nil
}

func (c *allDifferentConstraint) Post() {
	for i := range c.vars {
		i := i
		d := NewDemon("all_different", func(*Solver) { c.propagateBound(i) })
		c.vars[i].WhenBound(d)
	}
}

func (c *allDifferentConstraint) InitialPropagate() {
	for i, v := range c.vars {
		if v.Bound() {
			c.propagateBound(i)
		}
	}
}

func (c *allDifferentConstraint) propagateBound(i int) {
	value := c.vars[i].Value()
	for j, other := range c.vars {
		if j != i {
			other.RemoveValue(value)
		}
	}
}

func (c *allDifferentConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintAllDifferent)
	v.VisitIntegerVariableArrayArgument(ArgumentVariables, c.vars)
	v.EndVisitConstraint(ConstraintAllDifferent)
}
