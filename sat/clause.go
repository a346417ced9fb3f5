package sat

// Clause status bits, following the usual learnt-clause bookkeeping.
type clauseStatus uint8

const (
	statusLearnt    clauseStatus = 1 << iota // eligible for DB cleanup
	statusProtected                          // survives the next cleanup
)

// Clause is a heap-allocated clause of size >= 3 (it may shrink below that
// through rewriting, at which point the manager migrates it to the binary
// store or the trail). By convention its first two literal slots are the two
// currently watched positions while the clause is attached.
type Clause struct {
	literals []Literal
	lbd      int32
	status   clauseStatus
}

// NewClause copies lits into a fresh clause.
func NewClause(lits []Literal) *Clause {
	c := &Clause{literals: make([]Literal, len(lits))}
	copy(c.literals, lits)

	return c
}

// NewLearntClause copies lits into a clause marked learnt with the given
// literal-blocks-distance.
func NewLearntClause(lits []Literal, lbd int) *Clause {
	c := NewClause(lits)
	c.status |= statusLearnt
	c.lbd = int32(lbd)

	return c
}

// Size returns the number of literals; 0 once the clause is lazily deleted.
func (c *Clause) Size() int { return len(c.literals) }

// Literals exposes the literal slots. While attached, index 0 and 1 are the
// watched positions.
func (c *Clause) Literals() []Literal { return c.literals }

// FirstLiteral returns the literal at slot 0. After a propagation by this
// clause, slot 0 holds the propagated literal.
func (c *Clause) FirstLiteral() Literal { return c.literals[0] }

// SecondLiteral returns the literal at slot 1.
func (c *Clause) SecondLiteral() Literal { return c.literals[1] }

// IsDeleted reports whether the clause was lazily deleted.
func (c *Clause) IsDeleted() bool { return len(c.literals) == 0 }

// IsLearnt reports whether the clause came from conflict analysis.
func (c *Clause) IsLearnt() bool { return c.status&statusLearnt != 0 }

// IsProtected reports whether the clause survives the next DB cleanup.
func (c *Clause) IsProtected() bool { return c.status&statusProtected != 0 }

// Protect shields the clause from the next DB cleanup round.
func (c *Clause) Protect() { c.status |= statusProtected }

// Unprotect clears the cleanup shield.
func (c *Clause) Unprotect() { c.status &^= statusProtected }

// LBD returns the recorded literal-blocks-distance.
func (c *Clause) LBD() int { return int(c.lbd) }

// ChangeLBDIfBetter lowers the recorded LBD; a smaller LBD is stronger
// evidence of usefulness and is never overwritten by a larger one.
func (c *Clause) ChangeLBDIfBetter(lbd int) {
	if int32(lbd) < c.lbd {
		c.lbd = int32(lbd)
	}
}

// lazyDelete zeroes the size; the watcher lists skip zero-sized clauses and
// drop them on the next cleanup sweep.
func (c *Clause) lazyDelete() { c.literals = c.literals[:0] }

// String formats the clause for diagnostics.
func (c *Clause) String() string { return LiteralsString(c.literals) }
