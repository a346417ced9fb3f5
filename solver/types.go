// Package solver: shared enums, sentinel errors and engine parameters.
package solver

import (
	"errors"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvlsolve/rev"
)

var (
	// ErrEmptyArgument indicates a constraint posted with an empty array
	// where the semantics require at least one element.
	ErrEmptyArgument = errors.New("solver: empty argument array")

	// ErrNilVariable indicates a nil variable or expression argument.
	ErrNilVariable = errors.New("solver: nil variable")

	// ErrInvalidRange indicates a domain with min greater than max.
	ErrInvalidRange = errors.New("solver: invalid range")
)

// State describes where the solver is in its lifecycle.
type State int

const (
	// StateOutsideSearch: no search is open.
	StateOutsideSearch State = iota
	// StateInSearch: between NewSearch and EndSearch, exploring.
	StateInSearch
	// StateAtSolution: the last NextSolution returned a solution.
	StateAtSolution
	// StateNoMoreSolutions: the tree is exhausted.
	StateNoMoreSolutions
	// StateProblemInfeasible: initial propagation failed at the root.
	StateProblemInfeasible
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateOutsideSearch:
		return "OutsideSearch"
	case StateInSearch:
		return "InSearch"
	case StateAtSolution:
		return "AtSolution"
	case StateNoMoreSolutions:
		return "NoMoreSolutions"
	case StateProblemInfeasible:
		return "ProblemInfeasible"
	default:
		return "Unknown"
	}
}

// Priority orders demon execution: all Normal demons run before one Var
// demon, and both drain before one Delayed demon runs.
type Priority int

const (
	// DelayedPriority demons run last, for coarse aggregating constraints.
	DelayedPriority Priority = iota
	// VarPriority demons run after the normal queue drains.
	VarPriority
	// NormalPriority demons run first. Default.
	NormalPriority

	numPriorities
)

// DecisionModification is a monitor's verdict on a pending decision.
type DecisionModification int

const (
	// NoChange applies the decision normally.
	NoChange DecisionModification = iota
	// SwitchBranches refutes first and applies on backtrack.
	SwitchBranches
	// KeepLeft applies the decision without a choice point.
	KeepLeft
	// KeepRight refutes the decision without a choice point.
	KeepRight
	// KillBoth fails immediately.
	KillBoth
)

// markerKind discriminates the choice-point markers on the state stack.
type markerKind int

const (
	markerSentinel markerKind = iota
	markerChoicePoint
	markerReversibleAction
	markerSimple
)

// sentinelCode distinguishes the reserved sentinel markers bounding
// top-level and per-search lifetimes.
type sentinelCode int

const (
	solverCtorSentinel sentinelCode = iota
	initialSearchSentinel
	rootNodeSentinel
)

// Option configures a Solver. Use with NewSolver(name, opts...).
type Option func(*Parameters)

// Parameters holds engine configuration gathered from Option values.
type Parameters struct {
	// TrailBlockSize is the reversible-trail block size, in slots.
	TrailBlockSize int

	// TrailCompression selects the packer for completed trail blocks.
	TrailCompression rev.Compression

	// StoreNames keeps user-supplied names on variables.
	StoreNames bool

	// Profile enables per-priority demon run accounting in String().
	Profile bool

	// Logger receives search and propagation diagnostics. Defaults to nop.
	Logger *zap.Logger
}

// DefaultParameters returns the documented defaults: block size
// rev.DefaultBlockSize, no trail compression, names stored, no profiling,
// nop logger.
func DefaultParameters() Parameters {
	return Parameters{
		TrailBlockSize:   rev.DefaultBlockSize,
		TrailCompression: rev.NoCompression,
		StoreNames:       true,
		Logger:           zap.NewNop(),
	}
}

// WithTrailBlockSize sets the trail block size.
// Panics if n is not positive (programmer error).
func WithTrailBlockSize(n int) Option {
	if n <= 0 {
		panic("solver: trail block size must be positive")
	}

	return func(p *Parameters) { p.TrailBlockSize = n }
}

// WithTrailCompression selects the trail block packer.
func WithTrailCompression(c rev.Compression) Option {
	return func(p *Parameters) { p.TrailCompression = c }
}

// WithStoreNames toggles retention of user names on objects.
func WithStoreNames(on bool) Option {
	return func(p *Parameters) { p.StoreNames = on }
}

// WithProfile enables demon run profiling.
func WithProfile(on bool) Option {
	return func(p *Parameters) { p.Profile = on }
}

// WithLogger attaches a structured logger.
// Panics on nil (programmer error); use zap.NewNop() to silence.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("solver: nil logger")
	}

	return func(p *Parameters) { p.Logger = l }
}

func gatherParameters(opts []Option) Parameters {
	p := DefaultParameters()
	for _, fn := range opts {
		fn(&p)
	}

	return p
}

// Releaser is implemented by objects whose teardown must run when the
// choice point that created them is popped.
type Releaser interface {
	Release()
}
