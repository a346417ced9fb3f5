package dimacs

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
	// ErrMalformedCNF indicates input that does not follow the DIMACS
	// grammar.
	ErrMalformedCNF = errors.New("dimacs: malformed CNF")
)

// Problem is a parsed CNF formula.
type Problem struct {
	NumVariables int
	Clauses      [][]sat.Literal
}

// Read parses a DIMACS CNF stream. The "p cnf" header is honored when
// present (the variable count grows if clauses exceed it); comment lines
// start with "c".
func Read(r io.Reader) (*Problem, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	p := &Problem{}
	var current []sat.Literal
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[1] != "cnf" {
				return nil, fmt.Errorf("%w: line %d: bad problem line %q", ErrMalformedCNF, lineNumber, line)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: line %d: bad variable count", ErrMalformedCNF, lineNumber)
			}
			p.NumVariables = n
			continue
		}

		for _, field := range strings.Fields(line) {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad literal %q", ErrMalformedCNF, lineNumber, field)
			}
			if v == 0 {
				p.Clauses = append(p.Clauses, current)
				current = nil
				continue
			}
			l := sat.NewLiteralFromSigned(v)
			if n := int(l.Variable()) + 1; n > p.NumVariables {
				p.NumVariables = n
			}
			current = append(current, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dimacs: reading: %w", err)
	}
	if len(current) > 0 {
		return nil, fmt.Errorf("%w: last clause not terminated by 0", ErrMalformedCNF)
	}

	return p, nil
}

// Write emits a problem back in DIMACS form.
func Write(w io.Writer, p *Problem) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", p.NumVariables, len(p.Clauses)); err != nil {
		return err
	}
	for _, clause := range p.Clauses {
		for _, l := range clause {
			if _, err := fmt.Fprintf(bw, "%d ", l.Signed()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(bw, "0"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteModel emits a satisfying assignment in the solver-output convention:
// a "v" line of signed literals terminated by 0. assignment[i] is the value
// of variable i.
func WriteModel(w io.Writer, assignment []bool) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprint(bw, "v"); err != nil {
		return err
	}
	for i, value := range assignment {
		signed := i + 1
		if !value {
			signed = -signed
		}
		if _, err := fmt.Fprintf(bw, " %d", signed); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, " 0"); err != nil {
		return err
	}

	return bw.Flush()
}
