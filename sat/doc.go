// Package sat implements the clause and implication core of a CDCL SAT
// engine: Boolean variables and literals, the assignment trail, a clause
// manager with two-watched-literal propagation, and a binary implication
// graph with at-most-one constraints, equivalence detection and transitive
// reduction.
//
// The package is organised around a shared Trail. Propagators (the
// ClauseManager and the ImplicationGraph) consume newly assigned literals
// from the trail, enqueue implied literals back onto it, and serve reasons on
// demand. Every fact derived at the root level can be justified to an
// attached ProofSink as an LRAT inference, so a proof checker (package lrat)
// can validate the whole run.
//
// Key types:
//
//   - Literal / BooleanVariable — index encoding, polarity is a bit flip
//   - Trail / Assignment        — assignment order, levels, reasons
//   - ClausePtr                 — comparable handle to unit, binary and
//     empty clauses (by value) and heap clauses (by identity)
//   - ClauseManager             — n-ary clauses, unit propagation, deletion,
//     rewriting, inprocessing
//   - ImplicationGraph          — binary implications, at-most-ones, SCC
//     equivalences, failed-literal probing, clique extension
//
// Complexity:
//
//   - Unit propagation: amortised sub-linear in watched-clause inspections
//     (two-watched-literal invariant; backtracking never updates watchers).
//   - DetectEquivalences: O(V + E) Tarjan with bounded at-most-one expansion.
//   - ComputeTransitiveReduction: bounded by a caller-supplied visit budget.
//
// Concurrency: single-threaded by design; one engine owns its trail and
// stores. Run independent engines for parallelism.
package sat
