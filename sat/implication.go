package sat

import (
	"github.com/willf/bitset"
)

// literalsAndOffsets is the per-literal node of the implication graph: the
// directly implied literals, plus offsets into the shared at-most-one buffer
// for every group the literal belongs to.
type literalsAndOffsets struct {
	literals []Literal
	offsets  []int32
}

// ImplicationGraph stores binary clauses as implications and at-most-one
// groups in a shared buffer, propagates them along the trail, and supports
// the inprocessing passes built on the graph view: SCC-based equivalence
// detection, transitive reduction fused with failed-literal probing, and
// clique extension of at-most-ones.
//
// Invariant: a → b is stored iff ¬b → ¬a is stored.
type ImplicationGraph struct {
	trail *Trail
	opts  Options
	id    int32

	nodes     []literalsAndOffsets // by literal index
	amoBuffer []Literal            // [size, lits...]* runs

	reasons               []Literal // by trail index
	propagationTrailIndex int

	representativeOf []Literal // NoLiteral while a literal is its own rep
	isRedundant      *bitset.BitSet
	isDAG            bool
	reverseTopo      []Literal // representatives, reverse topological order

	numImplications int64
	numInspections  int64
	numPropagations int64
}

// NewImplicationGraph creates a graph over trail, registered as a reason
// server.
func NewImplicationGraph(trail *Trail, numVars int, opts ...Option) *ImplicationGraph {
	g := &ImplicationGraph{
		trail:       trail,
		opts:        gatherSatOptions(opts),
		isRedundant: bitset.New(uint(2 * numVars)),
	}
	g.id = trail.RegisterPropagator(g)
	g.Resize(numVars)

	return g
}

// PropagatorID returns the id under which this graph enqueues literals.
func (g *ImplicationGraph) PropagatorID() int32 { return g.id }

// Resize grows the graph to numVars variables.
func (g *ImplicationGraph) Resize(numVars int) {
	g.trail.Resize(numVars)
	for len(g.nodes) < 2*numVars {
		g.nodes = append(g.nodes, literalsAndOffsets{})
	}
	for len(g.representativeOf) < 2*numVars {
		g.representativeOf = append(g.representativeOf, NoLiteral)
	}
	for len(g.reasons) < numVars {
		g.reasons = append(g.reasons, NoLiteral)
	}
}

// NumImplications returns the number of stored direct implications.
func (g *ImplicationGraph) NumImplications() int64 { return g.numImplications }

// Implications returns the literals directly implied by l being true.
func (g *ImplicationGraph) Implications(l Literal) []Literal {
	return g.nodes[l.Index()].literals
}

// RepresentativeOf resolves l through the equivalence classes found by
// DetectEquivalences.
func (g *ImplicationGraph) RepresentativeOf(l Literal) Literal {
	if r := g.representativeOf[l.Index()]; r != NoLiteral {
		return r
	}

	return l
}

// IsRedundant reports whether l was replaced by a representative.
func (g *ImplicationGraph) IsRedundant(l Literal) bool {
	return g.isRedundant.Test(uint(l.Index()))
}

// AddBinaryClause stores the clause {a, b} as the implication pair
// ¬a → b and ¬b → a, canonicalised to representatives. A self-implication
// degenerates to a unit fix. Returns false when the addition makes the
// database unsatisfiable.
func (g *ImplicationGraph) AddBinaryClause(a, b Literal) bool {
	origA, origB := a, b
	a, b = g.RepresentativeOf(a), g.RepresentativeOf(b)

	if a == b.Negated() {
		return true // tautology
	}
	if a == b {
		// {a, a} is the unit clause {a}.
		return g.FixLiteral(a, []ClausePtr{BinaryClausePtr(origA, origB)})
	}

	assignment := g.trail.Assignment()
	if g.trail.CurrentDecisionLevel() == 0 {
		switch {
		case assignment.LiteralIsTrue(a) || assignment.LiteralIsTrue(b):
			return true // already satisfied at root
		case assignment.LiteralIsFalse(a):
			return g.FixLiteral(b, []ClausePtr{UnitClausePtr(a.Negated()), BinaryClausePtr(a, b)})
		case assignment.LiteralIsFalse(b):
			return g.FixLiteral(a, []ClausePtr{UnitClausePtr(b.Negated()), BinaryClausePtr(a, b)})
		}
	}

	if g.opts.Proof != nil && (a != origA || b != origB) {
		g.opts.Proof.AddInferredClause(BinaryClausePtr(a, b), []ClausePtr{
			BinaryClausePtr(origA.Negated(), a),
			BinaryClausePtr(origB.Negated(), b),
			BinaryClausePtr(origA, origB),
		})
	}

	g.nodes[a.Negated().Index()].literals = append(g.nodes[a.Negated().Index()].literals, b)
	g.nodes[b.Negated().Index()].literals = append(g.nodes[b.Negated().Index()].literals, a)
	g.numImplications += 2
	g.isDAG = false

	return true
}

// AddImplication stores a → b (the clause {¬a, b}).
func (g *ImplicationGraph) AddImplication(a, b Literal) bool {
	return g.AddBinaryClause(a.Negated(), b)
}

// atMostOne returns the members of the group starting at the given buffer
// offset.
func (g *ImplicationGraph) atMostOne(start int32) []Literal {
	size := int32(g.amoBuffer[start])

	return g.amoBuffer[start+1 : start+1+size]
}

// AddAtMostOne installs "at most one of lits is true". Groups of size one
// are no-ops; small groups are expanded into pairwise implications; large
// groups are kept in compact offset form. Returns false on unsatisfiability.
func (g *ImplicationGraph) AddAtMostOne(lits []Literal) bool {
	canonical := make([]Literal, 0, len(lits))
	seen := make(map[Literal]struct{}, len(lits))
	for _, l := range lits {
		r := g.RepresentativeOf(l)
		if _, dup := seen[r]; dup {
			// Twice the same literal in an at-most-one fixes it to false.
			if !g.FixLiteral(r.Negated(), nil) {
				return false
			}
			continue
		}
		seen[r] = struct{}{}
		canonical = append(canonical, r)
	}
	if len(canonical) <= 1 {
		return true
	}

	if len(canonical) <= g.opts.AtMostOneMaxExpansionSize {
		for i := 0; i < len(canonical); i++ {
			for j := i + 1; j < len(canonical); j++ {
				if !g.AddImplication(canonical[i], canonical[j].Negated()) {
					return false
				}
			}
		}

		return true
	}

	start := int32(len(g.amoBuffer))
	g.amoBuffer = append(g.amoBuffer, Literal(len(canonical)))
	g.amoBuffer = append(g.amoBuffer, canonical...)
	for _, l := range canonical {
		g.nodes[l.Index()].offsets = append(g.nodes[l.Index()].offsets, start)
	}
	g.isDAG = false

	return true
}

// FixLiteral enqueues l true at the root level, emitting the given RUP
// justification to the proof sink. Returns false when ¬l is already fixed.
func (g *ImplicationGraph) FixLiteral(l Literal, proof []ClausePtr) bool {
	assignment := g.trail.Assignment()
	if assignment.LiteralIsTrue(l) {
		return true
	}
	if assignment.LiteralIsFalse(l) {
		if g.opts.Proof != nil {
			chain := append(append([]ClausePtr{}, proof...), UnitClausePtr(l.Negated()))
			g.opts.Proof.AddInferredClause(EmptyClausePtr(), chain)
		}
		g.trail.SetConflict([]Literal{l})

		return false
	}
	if g.opts.Proof != nil {
		g.opts.Proof.AddInferredClause(UnitClausePtr(l), proof)
	}
	g.trail.EnqueueWithUnitReason(l)

	return true
}

// Propagate drains the trail from this graph's frontier. For each newly true
// literal it first forces all direct implications, then falsifies the other
// members of every at-most-one group containing it. Trail order is
// preserved: implications of earlier literals run first.
func (g *ImplicationGraph) Propagate() bool {
	assignment := g.trail.Assignment()

	for g.propagationTrailIndex < g.trail.Index() {
		trueLiteral := g.trail.Literal(g.propagationTrailIndex)
		g.propagationTrailIndex++
		level := g.trail.AssignmentLevel(trueLiteral)
		node := &g.nodes[trueLiteral.Index()]

		g.numInspections += int64(len(node.literals))
		for _, implied := range node.literals {
			if assignment.LiteralIsTrue(implied) {
				continue
			}
			g.numPropagations++
			if assignment.LiteralIsFalse(implied) {
				g.trail.SetConflict([]Literal{trueLiteral.Negated(), implied})
				g.trail.SetFailingClause(nil)
				if g.opts.Proof != nil && level == 0 && g.trail.AssignmentLevel(implied) == 0 {
					g.opts.Proof.AddInferredClause(EmptyClausePtr(), []ClausePtr{
						UnitClausePtr(trueLiteral),
						BinaryClausePtr(trueLiteral.Negated(), implied),
						UnitClausePtr(implied.Negated()),
					})
				}

				return false
			}
			if level == 0 && g.opts.Proof != nil {
				g.opts.Proof.AddInferredClause(UnitClausePtr(implied), []ClausePtr{
					UnitClausePtr(trueLiteral),
					BinaryClausePtr(trueLiteral.Negated(), implied),
				})
				g.trail.EnqueueWithUnitReason(implied)
			} else {
				g.reasons[g.trail.Index()] = trueLiteral.Negated()
				g.trail.EnqueueAtLevel(implied, g.id, level)
			}
		}

		for _, start := range node.offsets {
			for _, member := range g.atMostOne(start) {
				g.numInspections++
				if member == trueLiteral {
					continue
				}
				if assignment.LiteralIsFalse(member) {
					continue
				}
				g.numPropagations++
				if assignment.LiteralIsTrue(member) {
					g.trail.SetConflict([]Literal{trueLiteral.Negated(), member.Negated()})
					g.trail.SetFailingClause(nil)

					return false
				}
				g.reasons[g.trail.Index()] = trueLiteral.Negated()
				g.trail.EnqueueAtLevel(member.Negated(), g.id, level)
			}
		}
	}

	return true
}

// Reason serves the single-literal reason of a binary or at-most-one
// propagation.
func (g *ImplicationGraph) Reason(_ *Trail, trailIndex int) []Literal {
	return g.reasons[trailIndex : trailIndex+1]
}

// Untrail rewinds this graph's propagation frontier.
func (g *ImplicationGraph) Untrail(target int) {
	if g.propagationTrailIndex > target {
		g.propagationTrailIndex = target
	}
}
