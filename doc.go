// Package lvlsolve is a constraint programming and Boolean satisfiability
// toolkit: a CP propagation engine with trailed reversibility and
// depth-first search, and a CDCL SAT clause/implication core with
// incremental LRAT proof checking.
//
// 🚀 What is lvlsolve?
//
//	A pure-Go solving core built around one idea: a ground-truth fact store
//	that can be extended and then precisely undone, with propagation
//	fanning out from each fact and a checkable justification for every
//	fact that can be discarded.
//
// Under the hood, everything is organized in five subpackages plus a CLI:
//
//	rev/    — compressed reversible trails (identity / zlib / snappy packers)
//	solver/ — CP engine: variables, demons, constraints, depth-first search
//	sat/    — CDCL core: two-watched clauses, binary implication graph
//	lrat/   — incremental RUP/RAT proof checker and proof-stream parser
//	dimacs/ — CNF reading and writing
//	cmd/lratcheck — proof checker command (exit 0 iff VERIFIED UNSAT)
//
// Quick taste, a two-variable model:
//
//	s := solver.NewSolver("demo")
//	x := s.NewIntVar(0, 4, "x")
//	y := s.NewIntVar(0, 4, "y")
//	s.AddConstraint(solver.NewNonEqual(s, x, y))
//	s.Solve(solver.NewAssignVariables([]*solver.IntVar{x, y}))
//
// Everything is single-threaded by design: one engine per goroutine, no
// locks, no hidden state. Run independent engines for parallel search.
//
//	go get github.com/katalvlaran/lvlsolve
package lvlsolve
