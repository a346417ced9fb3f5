package solver_test

import (
	"fmt"

	"github.com/katalvlaran/lvlsolve/solver"
)

// ExampleSolver_Solve enumerates the solutions of a toy model: two distinct
// values summing to four.
func ExampleSolver_Solve() {
	s := solver.NewSolver("example")
	x := s.NewIntVar(0, 4, "x")
	y := s.NewIntVar(0, 4, "y")
	total := s.NewIntConst(4)

	s.AddConstraint(solver.NewNonEqual(s, x, y))
	sum, err := solver.NewSumEqual(s, []*solver.IntVar{x, y}, total)
	if err != nil {
		panic(err)
	}
	s.AddConstraint(sum)

	s.NewSearch(solver.NewAssignVariables([]*solver.IntVar{x, y}))
	for s.NextSolution() {
		fmt.Printf("x=%d y=%d\n", x.Value(), y.Value())
	}
	s.EndSearch()

	// Output:
	// x=0 y=4
	// x=1 y=3
	// x=3 y=1
	// x=4 y=0
}
