// Command lratcheck validates an LRAT proof that a CNF formula is
// unsatisfiable. It exits 0 iff the proof derives the empty clause, and
// prints a single-line diagnostic otherwise.
//
// Usage:
//
//	lratcheck --cnf problem.cnf --lrat proof.lrat
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvlsolve/dimacs"
	"github.com/katalvlaran/lvlsolve/lrat"
)

func main() {
	var cnfPath, lratPath string

	cmd := &cobra.Command{
		Use:           "lratcheck",
		Short:         "Check an LRAT unsatisfiability proof against a CNF formula",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(cnfPath, lratPath)
		},
	}
	cmd.Flags().StringVar(&cnfPath, "cnf", "", "input CNF file")
	cmd.Flags().StringVar(&lratPath, "lrat", "", "input LRAT proof file")
	_ = cmd.MarkFlagRequired("cnf")
	_ = cmd.MarkFlagRequired("lrat")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cnfPath, lratPath string) error {
	cnfFile, err := os.Open(cnfPath)
	if err != nil {
		return fmt.Errorf("opening CNF file: %w", err)
	}
	defer cnfFile.Close()

	problem, err := dimacs.Read(cnfFile)
	if err != nil {
		return err
	}

	checker := lrat.NewChecker()
	checker.EnableRatProofs()
	table := make(lrat.ClauseTable, len(problem.Clauses))
	lrat.LoadProblem(problem.Clauses, checker, table)

	proofFile, err := os.Open(lratPath)
	if err != nil {
		return fmt.Errorf("opening LRAT proof file: %w", err)
	}
	defer proofFile.Close()

	if err = lrat.Stream(proofFile, checker, table); err != nil {
		return err
	}
	if !checker.Check() {
		return fmt.Errorf("failed to verify UNSAT: %s", checker.ErrorMessage())
	}

	fmt.Println("VERIFIED UNSAT")

	return nil
}
