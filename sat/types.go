// Package sat: shared configuration for the clause manager and the
// implication graph, and the proof-emission contract.
package sat

import (
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrEmptyClause indicates that an empty clause was added: the problem
	// is unsatisfiable.
	ErrEmptyClause = errors.New("sat: empty clause, problem is unsatisfiable")

	// ErrBudgetExhausted indicates a bounded inprocessing pass ran out of
	// its work budget and aborted cleanly.
	ErrBudgetExhausted = errors.New("sat: work budget exhausted")
)

// ProofSink receives the LRAT-style justifications emitted by the engine.
// Each inferred clause names the exact prior clauses whose unit propagation
// derives it, so an incremental checker can validate the run. Implementations
// return false once a step fails to verify; the engine treats that as a
// diagnostic condition, not a solving failure.
//
// lrat.Checker is the reference implementation.
type ProofSink interface {
	AddProblemClause(clause ClausePtr) bool
	AddInferredClause(clause ClausePtr, rupChain []ClausePtr) bool
	RewriteClause(clause ClausePtr, newLiterals []Literal, rupChain []ClausePtr) bool
	DeleteClauses(clauses []ClausePtr)
}

// DefaultAtMostOneMaxExpansionSize is the largest at-most-one group expanded
// eagerly into pairwise implications.
const DefaultAtMostOneMaxExpansionSize = 10

// DefaultClauseCleanupLBDBound is the literal-blocks-distance at or below
// which a learnt clause is kept permanently.
const DefaultClauseCleanupLBDBound = 5

// Option configures the SAT stores. Use with NewClauseManager and
// NewImplicationGraph.
type Option func(*Options)

// Options holds shared parameters for the SAT stores.
type Options struct {
	// Proof, when non-nil, receives an LRAT justification for every fact
	// derived at the root level and every clause rewrite.
	Proof ProofSink

	// Logger receives propagation statistics and inprocessing summaries.
	// Defaults to a nop logger.
	Logger *zap.Logger

	// AtMostOneMaxExpansionSize bounds eager expansion of at-most-one groups
	// into pairwise implications.
	AtMostOneMaxExpansionSize int

	// ClauseCleanupLBDBound is the LBD at or below which a learnt clause is
	// kept permanently.
	ClauseCleanupLBDBound int
}

// DefaultSatOptions returns the documented defaults: no proof sink, nop
// logger, expansion size DefaultAtMostOneMaxExpansionSize, LBD bound
// DefaultClauseCleanupLBDBound.
func DefaultSatOptions() Options {
	return Options{
		Logger:                    zap.NewNop(),
		AtMostOneMaxExpansionSize: DefaultAtMostOneMaxExpansionSize,
		ClauseCleanupLBDBound:     DefaultClauseCleanupLBDBound,
	}
}

// WithProofSink attaches a proof sink.
func WithProofSink(p ProofSink) Option {
	return func(o *Options) { o.Proof = p }
}

// WithLogger attaches a structured logger.
// Panics on nil (programmer error); use zap.NewNop() to silence.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("sat: nil logger")
	}

	return func(o *Options) { o.Logger = l }
}

// WithAtMostOneMaxExpansionSize bounds eager at-most-one expansion.
// Panics if n < 2 (programmer error).
func WithAtMostOneMaxExpansionSize(n int) Option {
	if n < 2 {
		panic("sat: at-most-one expansion size must be at least 2")
	}

	return func(o *Options) { o.AtMostOneMaxExpansionSize = n }
}

// WithClauseCleanupLBDBound sets the LBD at or below which learnt clauses
// are permanent.
func WithClauseCleanupLBDBound(n int) Option {
	return func(o *Options) { o.ClauseCleanupLBDBound = n }
}

func gatherSatOptions(opts []Option) Options {
	o := DefaultSatOptions()
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
