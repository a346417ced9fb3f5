package solver

// Constraint is a relation over variables. Post registers its demons on the
// variables it watches; InitialPropagate performs the domain reductions the
// constraint implies on its own, before any variable has triggered.
// Constraints never retry: a refutation raises failure immediately through
// Solver.Fail.
type Constraint interface {
	Post()
	InitialPropagate()
	Accept(v ModelVisitor)
}

// PostAndPropagate runs Post then InitialPropagate under a queue freeze, so
// demons enqueued while posting run in one batch afterwards.
func PostAndPropagate(s *Solver, c Constraint) {
	s.queue.freeze()
	c.Post()
	c.InitialPropagate()
	s.queue.unfreeze()
}

// trueConstraint always holds.
type trueConstraint struct{}

// NewTrueConstraint returns a constraint that always holds.
func NewTrueConstraint() Constraint { return trueConstraint{} }

func (trueConstraint) Post()             {}
func (trueConstraint) InitialPropagate() {}
func (trueConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintTrue)
	v.EndVisitConstraint(ConstraintTrue)
}

// falseConstraint never holds: it fails at initial propagation.
type falseConstraint struct{ s *Solver }

// NewFalseConstraint returns a constraint that fails any branch it is
// posted on.
func NewFalseConstraint(s *Solver) Constraint { return falseConstraint{s: s} }

func (falseConstraint) Post() {}

func (c falseConstraint) InitialPropagate() { c.s.Fail() }

func (falseConstraint) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintFalse)
	v.EndVisitConstraint(ConstraintFalse)
}
