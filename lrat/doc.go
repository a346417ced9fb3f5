// Package lrat implements an incremental checker for LRAT proofs
// (https://arxiv.org/abs/1612.02353): unsatisfiability certificates in which
// every inferred clause names the exact prior clauses whose unit propagation
// derives it, so validation needs no search.
//
// The Checker does not store clauses: it takes every clause a chain names as
// live, and only keeps a per-literal occurrence count when RAT support is
// enabled. Stream resolves proof identifiers through a ClauseTable, which
// rejects references to unknown or deleted identifiers; callers driving the
// Checker directly get no such check. Problem clauses are accepted while the
// checker is valid; inferred clauses must carry a valid RUP chain, or, when
// RAT support is enabled, a resolvant block per clause containing the negated
// pivot. Deletions decrement the occurrence counts. Accepting the empty
// clause completes the proof. Failure is sticky: after the first
// invalid step every later call fails and the first diagnostic is retained.
//
// Checker implements sat.ProofSink, so it can ride along a solving engine
// and validate inferences as they are emitted, or be driven from a textual
// proof with Stream.
//
// Complexity: each step is linear in the literals of the clauses it names;
// the RAT occurrence index adds O(1) bookkeeping per literal added/removed.
package lrat
