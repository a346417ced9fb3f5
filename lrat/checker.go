package lrat

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/willf/bitset"

	"github.com/katalvlaran/lvlsolve/sat"
)

// RatClauses carries the proof of one resolvant in a RAT inference: the
// resolvant clause (a live clause containing the negated pivot) and the RUP
// chain driving its resolution with the inferred clause to a conflict.
type RatClauses struct {
	Resolvant  sat.ClausePtr
	RupClauses []sat.ClausePtr
}

// propagationStatus classifies the effect of one chain clause under the
// current false-literal set.
type propagationStatus int

const (
	propagationUnit propagationStatus = iota + 1
	propagationConflict
	propagationRedundant // the unit was already derived by an earlier clause
	propagationError     // the clause is neither unit nor empty
)

// litSet is a sparse set of literal indices: a bitset plus the list of set
// bits, so clearing between proof steps is proportional to the step size.
type litSet struct {
	bits    *bitset.BitSet
	touched []uint
}

func newLitSet() *litSet { return &litSet{bits: bitset.New(64)} }

func (s *litSet) contains(l sat.Literal) bool { return s.bits.Test(uint(l.Index())) }

func (s *litSet) add(l sat.Literal) {
	s.bits.Set(uint(l.Index()))
	s.touched = append(s.touched, uint(l.Index()))
}

func (s *litSet) clear() {
	for _, i := range s.touched {
		s.bits.Clear(i)
	}
	s.touched = s.touched[:0]
}

func (s *litSet) copyFrom(o *litSet) {
	s.clear()
	for _, i := range o.touched {
		s.bits.Set(i)
		s.touched = append(s.touched, i)
	}
}

// clauseKind discriminates the internal add paths.
type clauseKind int

const (
	problemClause clauseKind = iota
	inferredClause
	rewrittenClause
)

// Checker validates LRAT proofs incrementally. The zero value is not usable;
// call NewChecker. Checker implements sat.ProofSink.
type Checker struct {
	ratEnabled   bool
	numVariables int
	occurrences  []int // clauses containing each literal; only if ratEnabled

	valid    bool
	complete bool
	errMsg   string

	falseLits    *litSet
	ratFalseLits *litSet
	tmpClause    []sat.Literal
	tmpMarks     *litSet

	numProblemClauses  int64
	numInferredClauses int64
	numDeletedClauses  int64
}

// NewChecker creates a checker with RAT support disabled.
func NewChecker() *Checker {
	return &Checker{
		valid:        true,
		falseLits:    newLitSet(),
		ratFalseLits: newLitSet(),
		tmpMarks:     newLitSet(),
	}
}

// EnableRatProofs turns on RAT inference support. Must be called before any
// clause is added: the occurrence index has to observe every clause.
// Panics when clauses were already added (programmer error).
func (c *Checker) EnableRatProofs() {
	if c.numProblemClauses != 0 || c.numInferredClauses != 0 {
		panic("lrat: EnableRatProofs after clauses were added")
	}
	c.ratEnabled = true
}

// Valid reports whether all operations so far were accepted.
func (c *Checker) Valid() bool { return c.valid }

// Complete reports whether the empty clause has been successfully inferred.
func (c *Checker) Complete() bool { return c.complete }

// Check reports whether the proof is both valid and complete.
func (c *Checker) Check() bool {
	if c.valid && !c.complete {
		c.errMsg = "empty clause not inferred"
	}

	return c.valid && c.complete
}

// ErrorMessage returns the diagnostic of the first failed operation, or "".
func (c *Checker) ErrorMessage() string { return c.errMsg }

// AddProblemClause admits a clause without proof. It succeeds unless an
// earlier step already failed (failure is sticky). Problem clauses may be added after inferred clauses that do not reference
// them, which also serves to admit externally proved facts as axioms.
func (c *Checker) AddProblemClause(clause sat.ClausePtr) bool {
	c.numProblemClauses++

	return c.addClauseInternal(problemClause, clause, clause.Literals(), nil, nil)
}

// AddAssumedClause admits a clause as true without proof: learned facts
// proved by another worker, or axioms of a rewritten problem.
func (c *Checker) AddAssumedClause(clause sat.ClausePtr) bool {
	return c.AddProblemClause(clause)
}

// AddInferredClause validates that clause follows from the live set by
// reverse unit propagation through rupChain. Implements the RUP-only
// sat.ProofSink signature.
func (c *Checker) AddInferredClause(clause sat.ClausePtr, rupChain []sat.ClausePtr) bool {
	return c.AddInferredClauseWithRat(clause, rupChain, nil)
}

// AddInferredClauseWithRat validates a RUP chain and, when it stops short of
// a conflict, the RAT property of the clause against ratChain.
func (c *Checker) AddInferredClauseWithRat(clause sat.ClausePtr, rupChain []sat.ClausePtr, ratChain []RatClauses) bool {
	c.numInferredClauses++

	return c.addClauseInternal(inferredClause, clause, clause.Literals(), rupChain, ratChain)
}

// RewriteClause rebinds an existing id to a new literal set, validated like
// an inferred clause. Implements the RUP-only sat.ProofSink signature.
func (c *Checker) RewriteClause(clause sat.ClausePtr, newLiterals []sat.Literal, rupChain []sat.ClausePtr) bool {
	return c.RewriteClauseWithRat(clause, newLiterals, rupChain, nil)
}

// RewriteClauseWithRat is RewriteClause with a RAT fallback chain.
func (c *Checker) RewriteClauseWithRat(clause sat.ClausePtr, newLiterals []sat.Literal, rupChain []sat.ClausePtr, ratChain []RatClauses) bool {
	c.numInferredClauses++

	return c.addClauseInternal(rewrittenClause, clause, newLiterals, rupChain, ratChain)
}

// DeleteClauses records the deletion of clauses: with RAT support enabled it
// decrements the occurrence counts of their literals. The checker keeps no
// clause set, so deleting a clause that was never added (or twice) is not
// detected, and a later chain naming a deleted clause is not rejected here.
func (c *Checker) DeleteClauses(clauses []sat.ClausePtr) {
	c.numDeletedClauses += int64(len(clauses))
	if !c.valid || c.complete || !c.ratEnabled {
		return
	}
	for _, clause := range clauses {
		c.tmpMarks.clear()
		for _, l := range clause.Literals() {
			if c.tmpMarks.contains(l) {
				continue
			}
			c.tmpMarks.add(l)
			if l.Index() < len(c.occurrences) {
				c.occurrences[l.Index()]--
			}
		}
	}
}

// propagate applies one chain clause under the false-literal set: it must be
// empty (conflict) or have exactly one non-falsified literal, whose negation
// joins the set.
func (c *Checker) propagate(clause sat.ClausePtr, falseSet *litSet) propagationStatus {
	unassigned := sat.NoLiteral
	for _, l := range clause.Literals() {
		if !falseSet.contains(l) {
			if unassigned != sat.NoLiteral {
				return propagationError
			}
			unassigned = l
		}
	}
	if unassigned == sat.NoLiteral {
		return propagationConflict
	}
	if falseSet.contains(unassigned.Negated()) {
		return propagationRedundant
	}
	falseSet.add(unassigned.Negated())

	return propagationUnit
}

func (c *Checker) error(clause sat.ClausePtr, msg string) bool {
	if c.valid {
		c.errMsg = fmt.Sprintf("in clause %v: %s", clause, msg)
		c.valid = false
	}

	return false
}

func (c *Checker) addClauseInternal(kind clauseKind, ptr sat.ClausePtr, literals []sat.Literal, rupChain []sat.ClausePtr, ratChain []RatClauses) bool {
	if !c.valid {
		return false
	}
	if c.complete {
		return true
	}

	// Deduplicate and reject tautologies, growing the variable universe.
	clause := c.tmpClause[:0]
	numVariables := c.numVariables
	for _, l := range literals {
		if v := int(l.Variable()) + 1; v > numVariables {
			numVariables = v
		}
	}
	c.falseLits.clear()
	for _, l := range literals {
		if c.falseLits.contains(l) {
			continue
		}
		if c.falseLits.contains(l.Negated()) {
			// Contains a literal and its negation: always true, nothing to
			// infer from it.
			return true
		}
		c.falseLits.add(l)
		clause = append(clause, l)
	}
	c.tmpClause = clause

	if numVariables > c.numVariables {
		c.numVariables = numVariables
		if c.ratEnabled {
			for len(c.occurrences) < 2*numVariables {
				c.occurrences = append(c.occurrences, 0)
			}
		} else if len(clause) == 1 && len(rupChain) == 0 && len(ratChain) == 0 && kind != rewrittenClause {
			// A unit clause over a brand new variable holds by RAT trivially;
			// accept it without requiring RAT support.
			return true
		}
	}

	if kind != problemClause {
		status := propagationUnit
		for _, rupClause := range rupChain {
			status = c.propagate(rupClause, c.falseLits)
			if status == propagationError {
				return c.error(ptr, fmt.Sprintf("rup clause %v is not unit", rupClause))
			}
			if status == propagationRedundant {
				status = propagationUnit
			}
			if status == propagationConflict {
				// Extra chain clauses after the conflict are tolerated.
				break
			}
		}
		if status != propagationConflict {
			if ok := c.checkRatProperty(ptr, clause, ratChain); !ok {
				return false
			}
		}
	}

	if c.ratEnabled {
		for _, l := range clause {
			c.occurrences[l.Index()]++
		}
		if kind == rewrittenClause {
			// A rewrite removes the old literal set and adds the new one.
			c.tmpMarks.clear()
			for _, l := range ptr.Literals() {
				if c.tmpMarks.contains(l) {
					continue
				}
				c.tmpMarks.add(l)
				c.occurrences[l.Index()]--
			}
		}
	}

	if len(clause) == 0 {
		c.complete = true
	}

	return true
}

// checkRatProperty validates condition 3 of the LRAT rules: ratChain must
// contain exactly the live clauses holding the negated pivot, and each
// resolution must be trivially satisfied or driven to a conflict by its
// sub-chain. The false-literal set already holds the clause literals plus
// everything derived by the main RUP chain.
func (c *Checker) checkRatProperty(ptr sat.ClausePtr, clause []sat.Literal, ratChain []RatClauses) bool {
	if len(ratChain) == 0 {
		return c.error(ptr, "rup chain does not end with a conflict")
	}
	if !c.ratEnabled {
		return c.error(ptr, "RAT proof support is disabled")
	}
	if len(clause) == 0 {
		return c.error(ptr, "missing pivot for RAT proof")
	}
	pivot := clause[0]
	if len(ratChain) != c.occurrences[pivot.Negated().Index()] {
		return c.error(ptr, "wrong number of resolvant clauses in RAT proof")
	}

	resolvants := set.New[sat.ClausePtr](len(ratChain))
	for _, rat := range ratChain {
		resolvant := rat.Resolvant
		if !resolvants.Insert(resolvant) {
			return c.error(ptr, fmt.Sprintf("duplicate resolvant %v", resolvant))
		}

		resolvantLiterals := resolvant.Literals()
		found := false
		for _, l := range resolvantLiterals {
			if l == pivot.Negated() {
				found = true
				break
			}
		}
		if !found {
			return c.error(ptr, fmt.Sprintf("missing negated pivot in resolvant %v", resolvant))
		}

		// Assume the resolvant's literals (minus ¬pivot) false as well,
		// unless that immediately creates two complementary literals, in
		// which case the resolution is trivially satisfied.
		c.ratFalseLits.copyFrom(c.falseLits)
		trivial := false
		for _, l := range resolvantLiterals {
			if l == pivot.Negated() {
				continue
			}
			if c.falseLits.contains(l.Negated()) {
				trivial = true
				break
			}
			c.ratFalseLits.add(l)
		}
		if trivial {
			continue
		}

		status := propagationUnit
		for _, rupClause := range rat.RupClauses {
			status = c.propagate(rupClause, c.ratFalseLits)
			if status == propagationError {
				return c.error(ptr, fmt.Sprintf("rat rup clause %v is not unit", rupClause))
			}
			if status == propagationRedundant {
				status = propagationUnit
			}
			if status == propagationConflict {
				break
			}
		}
		if status != propagationConflict {
			return c.error(ptr, fmt.Sprintf("last rup clause for resolvant %v is not a conflict", resolvant))
		}
	}

	return true
}
