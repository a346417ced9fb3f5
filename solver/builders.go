package solver

// Decision is one branching step: Apply commits the left branch, Refute the
// right one. The driver guarantees Refute runs at the same marker where
// Apply was pushed.
type Decision interface {
	Apply(s *Solver)
	Refute(s *Solver)
}

// DecisionBuilder emits the next decision at each node, or nil to declare
// the node a solution.
type DecisionBuilder interface {
	Next(s *Solver) Decision
	// AppendMonitors returns extra monitors the builder needs installed.
	AppendMonitors(s *Solver) []SearchMonitor
}

// reverseDecision swaps the branches of a decision, implementing the
// SwitchBranches modification.
type reverseDecision struct{ d Decision }

func (r reverseDecision) Apply(s *Solver)  { r.d.Refute(s) }
func (r reverseDecision) Refute(s *Solver) { r.d.Apply(s) }

// failDecision is the sentinel a builder returns to fail the node now
// instead of two branches later.
type failDecision struct{}

func (failDecision) Apply(s *Solver)  { s.Fail() }
func (failDecision) Refute(s *Solver) { s.Fail() }

// FailDecision returns the sentinel decision that fails the current node.
func (s *Solver) FailDecision() Decision { return failDecisionSentinel }

var failDecisionSentinel Decision = failDecision{}

// ----- Assign a value to a variable -----

// assignDecision tries x = value on the left branch and x != value on the
// right one.
type assignDecision struct {
	v     *IntVar
	value int64
}

// NewAssignDecision returns the decision x = value / x != value.
func NewAssignDecision(v *IntVar, value int64) Decision {
	if v == nil {
		panic("solver: nil variable")
	}

	return &assignDecision{v: v, value: value}
}

func (d *assignDecision) Apply(*Solver)  { d.v.SetValue(d.value) }
func (d *assignDecision) Refute(*Solver) { d.v.RemoveValue(d.value) }

// ----- First-unbound, min-value search -----

// assignVariables branches on the first unbound variable, trying its
// minimum value first. The baseline labeling strategy.
type assignVariables struct {
	vars []*IntVar
}

// NewAssignVariables returns a decision builder labeling vars in order,
// minimum value first.
// Panics on an empty array (programmer error: nothing to search on).
func NewAssignVariables(vars []*IntVar) DecisionBuilder {
	if len(vars) == 0 {
		panic("solver: no variables to assign")
	}
	owned := make([]*IntVar, len(vars))
	copy(owned, vars)

	return &assignVariables{vars: owned}
}

func (b *assignVariables) Next(*Solver) Decision {
	for _, v := range b.vars {
		if !v.Bound() {
			return NewAssignDecision(v, v.Min())
		}
	}

	return nil
}

func (b *assignVariables) AppendMonitors(*Solver) []SearchMonitor { return nil }

// ----- Compose builders sequentially -----

// composeBuilders runs each builder to exhaustion before the next one.
type composeBuilders struct {
	builders []DecisionBuilder
}

// NewCompose chains decision builders: each emits decisions until it
// returns nil, then the next takes over.
func NewCompose(builders ...DecisionBuilder) DecisionBuilder {
	if len(builders) == 0 {
		panic("solver: no builders to compose")
	}

	return &composeBuilders{builders: builders}
}

func (b *composeBuilders) Next(s *Solver) Decision {
	for _, db := range b.builders {
		if d := db.Next(s); d != nil {
			return d
		}
	}

	return nil
}

func (b *composeBuilders) AppendMonitors(s *Solver) []SearchMonitor {
	var extras []SearchMonitor
	for _, db := range b.builders {
		extras = append(extras, db.AppendMonitors(s)...)
	}

	return extras
}
