package solver

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Model visitor protocol: the canonical, serialisation-friendly description
// of a model. Constraints dispatch themselves onto a ModelVisitor with a
// closed vocabulary of constraint tags, expression tags and argument names;
// a visitor sequence round-trips back into an equivalent constraint set
// (see TraceVisitor and RebuildFromTrace).

// Constraint type tags.
const (
	ConstraintAllDifferent       = "AllDifferent"
	ConstraintAllowedAssignments = "AllowedAssignments"
	ConstraintBetween            = "Between"
	ConstraintCountEqual         = "CountEqual"
	ConstraintCumulative         = "Cumulative"
	ConstraintElementEqual       = "ElementEqual"
	ConstraintEquality           = "Equality"
	ConstraintFalse              = "FalseConstraint"
	ConstraintGreater            = "Greater"
	ConstraintGreaterOrEqual     = "GreaterOrEqual"
	ConstraintIntervalDisjunct   = "IntervalDisjunction"
	ConstraintIsBetween          = "IsBetween"
	ConstraintIsEqual            = "IsEqual"
	ConstraintIsLessOrEqual      = "IsLessOrEqual"
	ConstraintIsMember           = "IsMember"
	ConstraintLess               = "Less"
	ConstraintLessOrEqual        = "LessOrEqual"
	ConstraintMapDomain          = "MapDomain"
	ConstraintMax                = "Max"
	ConstraintMaxEqual           = "MaxEqual"
	ConstraintMember             = "Member"
	ConstraintMin                = "Min"
	ConstraintMinEqual           = "MinEqual"
	ConstraintNoCycle            = "NoCycle"
	ConstraintNonEqual           = "NonEqual"
	ConstraintPack               = "Pack"
	ConstraintPathCumul          = "PathCumul"
	ConstraintScalProd           = "ScalarProduct"
	ConstraintScalProdEqual      = "ScalarProductEqual"
	ConstraintScalProdGreaterEq  = "ScalarProductGreaterOrEqual"
	ConstraintScalProdLessEq     = "ScalarProductLessOrEqual"
	ConstraintSequence           = "Sequence"
	ConstraintSumEqual           = "SumEqual"
	ConstraintSumGreater         = "SumGreater"
	ConstraintSumGreaterOrEqual  = "SumGreaterOrEqual"
	ConstraintSumLess            = "SumLess"
	ConstraintSumLessOrEqual     = "SumLessOrEqual"
	ConstraintTransition         = "Transition"
	ConstraintTrue               = "TrueConstraint"
)

// Expression type tags.
const (
	ExpressionAbs        = "Abs"
	ExpressionDifference = "Difference"
	ExpressionDivide     = "Divide"
	ExpressionElement    = "Element"
	ExpressionMax        = "Max"
	ExpressionMin        = "Min"
	ExpressionOpposite   = "Opposite"
	ExpressionProduct    = "Product"
	ExpressionSquare     = "Square"
	ExpressionSum        = "Sum"
)

// Argument names.
const (
	ArgumentActive         = "active"
	ArgumentCardinalities  = "cardinalities"
	ArgumentCoefficients   = "coefficients"
	ArgumentCount          = "count"
	ArgumentCumuls         = "cumuls"
	ArgumentExpression     = "expression"
	ArgumentFinalStates    = "final_states"
	ArgumentIndex          = "index"
	ArgumentIndex2         = "index2"
	ArgumentInitialState   = "initial_state"
	ArgumentInterval       = "interval"
	ArgumentIntervals      = "intervals"
	ArgumentLeft           = "left"
	ArgumentMaxValue       = "max_value"
	ArgumentMinValue       = "min_value"
	ArgumentNexts          = "nexts"
	ArgumentRange          = "range"
	ArgumentRelation       = "relation"
	ArgumentRight          = "right"
	ArgumentSize           = "size"
	ArgumentStep           = "step"
	ArgumentTargetVariable = "target_variable"
	ArgumentTransits       = "transits"
	ArgumentTuples         = "tuples"
	ArgumentValue          = "value"
	ArgumentValues         = "values"
	ArgumentVariables      = "variables"
)

// ModelVisitor receives a model walk. Implementations must tolerate any
// ordering of arguments inside a constraint block.
type ModelVisitor interface {
	BeginVisitModel(name string)
	EndVisitModel()

	BeginVisitConstraint(tag string)
	EndVisitConstraint(tag string)

	BeginVisitExpression(tag string)
	EndVisitExpression(tag string)

	VisitIntegerArgument(name string, value int64)
	VisitIntegerArrayArgument(name string, values []int64)
	VisitIntegerVariableArgument(name string, v *IntVar)
	VisitIntegerVariableArrayArgument(name string, vars []*IntVar)
	VisitIntegerExpressionArgument(name string, e IntExpr)
}

// ----- Trace recording -----

// TraceEvent is one recorded visitor call.
type TraceEvent struct {
	Kind     string // "begin_model", "constraint", "int_arg", ...
	Tag      string
	Name     string
	Value    int64
	Values   []int64
	Variable *IntVar
	Vars     []*IntVar
	Expr     IntExpr
}

// TraceVisitor records every call, for round-trip checks and debugging.
type TraceVisitor struct {
	Events []TraceEvent
}

// NewTraceVisitor returns an empty recorder.
func NewTraceVisitor() *TraceVisitor { return &TraceVisitor{} }

func (t *TraceVisitor) BeginVisitModel(name string) {
	t.Events = append(t.Events, TraceEvent{Kind: "begin_model", Name: name})
}

func (t *TraceVisitor) EndVisitModel() {
	t.Events = append(t.Events, TraceEvent{Kind: "end_model"})
}

func (t *TraceVisitor) BeginVisitConstraint(tag string) {
	t.Events = append(t.Events, TraceEvent{Kind: "begin_constraint", Tag: tag})
}

func (t *TraceVisitor) EndVisitConstraint(tag string) {
	t.Events = append(t.Events, TraceEvent{Kind: "end_constraint", Tag: tag})
}

func (t *TraceVisitor) BeginVisitExpression(tag string) {
	t.Events = append(t.Events, TraceEvent{Kind: "begin_expression", Tag: tag})
}

func (t *TraceVisitor) EndVisitExpression(tag string) {
	t.Events = append(t.Events, TraceEvent{Kind: "end_expression", Tag: tag})
}

func (t *TraceVisitor) VisitIntegerArgument(name string, value int64) {
	t.Events = append(t.Events, TraceEvent{Kind: "int_arg", Name: name, Value: value})
}

func (t *TraceVisitor) VisitIntegerArrayArgument(name string, values []int64) {
	owned := make([]int64, len(values))
	copy(owned, values)
	t.Events = append(t.Events, TraceEvent{Kind: "int_array_arg", Name: name, Values: owned})
}

func (t *TraceVisitor) VisitIntegerVariableArgument(name string, v *IntVar) {
	t.Events = append(t.Events, TraceEvent{Kind: "var_arg", Name: name, Variable: v})
}

func (t *TraceVisitor) VisitIntegerVariableArrayArgument(name string, vars []*IntVar) {
	owned := make([]*IntVar, len(vars))
	copy(owned, vars)
	t.Events = append(t.Events, TraceEvent{Kind: "var_array_arg", Name: name, Vars: owned})
}

func (t *TraceVisitor) VisitIntegerExpressionArgument(name string, e IntExpr) {
	t.Events = append(t.Events, TraceEvent{Kind: "expr_arg", Name: name, Expr: e})
}

// ----- Rebuilding -----

// RebuildFromTrace reconstructs constraints from a recorded trace, built
// against s; the returned constraints are not added to s. Supported tags are the ones this package can build;
// round-tripping a model through TraceVisitor and RebuildFromTrace yields
// an equivalent constraint set. Defects across the whole trace are
// accumulated, so one pass reports every malformed constraint.
func RebuildFromTrace(s *Solver, events []TraceEvent) ([]Constraint, error) {
	var (
		out      []Constraint
		errs     *multierror.Error
		tag      string
		intArgs  map[string]int64
		arrArgs  map[string][]int64
		varArgs  map[string]*IntVar
		varsArgs map[string][]*IntVar
	)

	reset := func() {
		intArgs = make(map[string]int64)
		arrArgs = make(map[string][]int64)
		varArgs = make(map[string]*IntVar)
		varsArgs = make(map[string][]*IntVar)
	}
	reset()

	for _, ev := range events {
		switch ev.Kind {
		case "begin_constraint":
			tag = ev.Tag
			reset()
		case "int_arg":
			intArgs[ev.Name] = ev.Value
		case "int_array_arg":
			arrArgs[ev.Name] = ev.Values
		case "var_arg":
			varArgs[ev.Name] = ev.Variable
		case "var_array_arg":
			varsArgs[ev.Name] = ev.Vars
		case "expr_arg":
			// Expressions round-trip through their cast variable.
			varArgs[ev.Name] = ev.Expr.Var()
		case "end_constraint":
			c, err := rebuildConstraint(s, tag, intArgs, arrArgs, varArgs, varsArgs)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("constraint %s: %w", tag, err))
				continue
			}
			if c != nil {
				out = append(out, c)
			}
		}
	}

	return out, errs.ErrorOrNil()
}

func rebuildConstraint(
	s *Solver,
	tag string,
	intArgs map[string]int64,
	arrArgs map[string][]int64,
	varArgs map[string]*IntVar,
	varsArgs map[string][]*IntVar,
) (Constraint, error) {
	switch tag {
	case ConstraintTrue:
		return NewTrueConstraint(), nil
	case ConstraintFalse:
		return NewFalseConstraint(s), nil
	case ConstraintAllDifferent:
		return NewAllDifferent(s, varsArgs[ArgumentVariables])
	case ConstraintEquality:
		if left, ok := varArgs[ArgumentLeft]; ok {
			return NewEquality(s, left, varArgs[ArgumentRight]), nil
		}
		// A bare target variable marks an expression link; it carries no
		// extra semantics on rebuild.
		return nil, nil
	case ConstraintNonEqual:
		return NewNonEqual(s, varArgs[ArgumentLeft], varArgs[ArgumentRight]), nil
	case ConstraintLess:
		return NewLess(s, varArgs[ArgumentLeft], varArgs[ArgumentRight]), nil
	case ConstraintLessOrEqual:
		return NewLessOrEqual(s, varArgs[ArgumentLeft], varArgs[ArgumentRight]), nil
	case ConstraintGreater:
		return NewGreater(s, varArgs[ArgumentLeft], varArgs[ArgumentRight]), nil
	case ConstraintGreaterOrEqual:
		return NewGreaterOrEqual(s, varArgs[ArgumentLeft], varArgs[ArgumentRight]), nil
	case ConstraintBetween:
		return NewBetween(s, varArgs[ArgumentExpression],
			intArgs[ArgumentMinValue], intArgs[ArgumentMaxValue]), nil
	case ConstraintMember:
		return NewMember(s, varArgs[ArgumentExpression], arrArgs[ArgumentValues])
	case ConstraintSumEqual:
		return NewSumEqual(s, varsArgs[ArgumentVariables], varArgs[ArgumentTargetVariable])
	case ConstraintElementEqual:
		return NewElementEqual(s, varsArgs[ArgumentVariables],
			varArgs[ArgumentIndex], varArgs[ArgumentTargetVariable])
	default:
		return nil, ErrUnknownConstraintTag(tag)
	}
}

// ErrUnknownConstraintTag reports a trace tag this package cannot rebuild.
type ErrUnknownConstraintTag string

func (e ErrUnknownConstraintTag) Error() string {
	return "solver: unknown constraint tag " + string(e)
}
