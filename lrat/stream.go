package lrat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/katalvlaran/lvlsolve/sat"
)

var (
	// ErrMalformedProof indicates a proof line that does not follow the LRAT
	// grammar.
	ErrMalformedProof = errors.New("lrat: malformed proof")

	// ErrClauseNotFound indicates a proof step referencing an unknown or
	// deleted clause identifier.
	ErrClauseNotFound = errors.New("lrat: clause not found")

	// ErrInvalidInference indicates a step the checker rejected; the
	// checker's diagnostic is attached.
	ErrInvalidInference = errors.New("lrat: invalid inference")
)

// ClauseTable maps proof identifiers onto live clause pointers.
type ClauseTable map[uint64]sat.ClausePtr

// LoadProblem feeds the problem clauses into checker and table, keyed by
// their 1-based position, which is how LRAT proofs reference them.
func LoadProblem(clauses [][]sat.Literal, checker *Checker, table ClauseTable) {
	for i, lits := range clauses {
		ptr := sat.NewClausePtr(lits)
		checker.AddProblemClause(ptr)
		table[uint64(i+1)] = ptr
	}
}

// Stream parses a textual LRAT proof from r and applies each step to
// checker. Lines are either deletions, "<id> d <id>* 0", or inferences,
// "<id> <literal>* 0 <rup-id-or-rat-block>* 0", where a negative reference
// opens a RAT resolvant block whose sub-chain runs to the next negative
// reference or the end of the line.
//
// Returns nil when every step was applied; the proof may still be
// incomplete — ask checker.Check() whether the empty clause was reached.
func Stream(r io.Reader, checker *Checker, table ClauseTable) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue // blank or comment line
		}
		if err := applyLine(line, checker, table); err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("lrat: reading proof: %w", err)
	}

	return nil
}

func applyLine(line string, checker *Checker, table ClauseTable) error {
	terms := strings.Fields(line)
	if len(terms) < 2 || terms[len(terms)-1] != "0" {
		return fmt.Errorf("%w: missing terminating 0", ErrMalformedProof)
	}

	id, err := strconv.ParseUint(terms[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad clause id %q", ErrMalformedProof, terms[0])
	}

	if terms[1] == "d" {
		return applyDeletion(terms[2:], checker, table)
	}

	return applyInference(id, terms[1:], checker, table)
}

func applyDeletion(terms []string, checker *Checker, table ClauseTable) error {
	deleted := make([]sat.ClausePtr, 0, len(terms))
	for i, term := range terms {
		ref, err := strconv.ParseUint(term, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad deletion id %q", ErrMalformedProof, term)
		}
		if ref == 0 {
			if i != len(terms)-1 {
				return fmt.Errorf("%w: 0 before end of deletion line", ErrMalformedProof)
			}
			break
		}
		ptr, ok := table[ref]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrClauseNotFound, ref)
		}
		deleted = append(deleted, ptr)
		delete(table, ref)
	}
	checker.DeleteClauses(deleted)

	return nil
}

func applyInference(id uint64, terms []string, checker *Checker, table ClauseTable) error {
	var (
		lits       []sat.Literal
		rupChain   []sat.ClausePtr
		ratChain   []RatClauses
		clauseDone bool
	)

	for i, term := range terms {
		ref, err := strconv.ParseInt(term, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad token %q", ErrMalformedProof, term)
		}

		switch {
		case ref == 0 && !clauseDone:
			clauseDone = true
		case ref == 0:
			if i != len(terms)-1 {
				return fmt.Errorf("%w: second 0 before end of line", ErrMalformedProof)
			}
		case !clauseDone:
			lits = append(lits, sat.NewLiteralFromSigned(int(ref)))
		case ref > 0:
			ptr, ok := table[uint64(ref)]
			if !ok {
				return fmt.Errorf("%w: id %d", ErrClauseNotFound, ref)
			}
			if len(ratChain) == 0 {
				rupChain = append(rupChain, ptr)
			} else {
				last := &ratChain[len(ratChain)-1]
				last.RupClauses = append(last.RupClauses, ptr)
			}
		default: // negative reference opens a RAT resolvant block
			ptr, ok := table[uint64(-ref)]
			if !ok {
				return fmt.Errorf("%w: id %d", ErrClauseNotFound, -ref)
			}
			ratChain = append(ratChain, RatClauses{Resolvant: ptr})
		}
	}
	if !clauseDone {
		return fmt.Errorf("%w: clause literals not terminated", ErrMalformedProof)
	}

	ptr := sat.NewClausePtr(lits)
	table[id] = ptr
	if !checker.AddInferredClauseWithRat(ptr, rupChain, ratChain) {
		return fmt.Errorf("%w: %s", ErrInvalidInference, checker.ErrorMessage())
	}

	return nil
}
