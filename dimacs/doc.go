// Package dimacs reads and writes CNF formulas in the DIMACS format used by
// SAT solvers: a "p cnf <vars> <clauses>" header followed by clauses as
// sequences of non-zero signed integers terminated by 0. Positive k is the
// literal of variable k-1 with polarity true, negative -k the polarity
// false; variables are dense and 0-based internally.
package dimacs
