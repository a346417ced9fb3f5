package sat

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
)

// tarjanFrame is one suspended DFS node of the iterative SCC search.
type tarjanFrame struct {
	v     int32
	child int
}

// sccEdges materialises the neighbor list used by the SCC search: the direct
// implications of each literal plus the expansion of each at-most-one group.
// Following the known bound, every group is expanded for at most two of its
// members; missing edges can only under-merge, never produce a wrong
// equivalence.
func (g *ImplicationGraph) sccEdges() [][]Literal {
	extra := make([][]Literal, len(g.nodes))
	expansions := make(map[int32]int)
	for li := range g.nodes {
		for _, start := range g.nodes[li].offsets {
			if expansions[start] >= 2 {
				continue
			}
			expansions[start]++
			l := Literal(li)
			for _, member := range g.atMostOne(start) {
				if member != l {
					extra[li] = append(extra[li], member.Negated())
				}
			}
		}
	}

	return extra
}

// DetectEquivalences interprets the graph as a directed graph and finds its
// strongly connected components with Tarjan's algorithm. Within each
// component the smallest-index literal becomes the representative; the other
// literals are marked redundant and rewritten into a direct edge to it. A
// component containing both x and ¬x proves unsatisfiability: the method
// returns false.
//
// Components are produced successors-first, which is the reverse topological
// order that ComputeTransitiveReduction consumes.
func (g *ImplicationGraph) DetectEquivalences() bool {
	if g.isDAG {
		return true
	}

	n := len(g.nodes)
	extra := g.sccEdges()

	const unvisited = int32(-1)
	index := make([]int32, n)
	lowlink := make([]int32, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	var (
		counter  int32
		sccStack []int32
		sccs     [][]int32
	)

	edge := func(v int32, i int) (Literal, bool) {
		lits := g.nodes[v].literals
		if i < len(lits) {
			return lits[i], true
		}
		if j := i - len(lits); j < len(extra[v]) {
			return extra[v][j], true
		}

		return NoLiteral, false
	}

	for root := int32(0); root < int32(n); root++ {
		if index[root] != unvisited {
			continue
		}
		frames := []tarjanFrame{{v: root}}
		index[root], lowlink[root] = counter, counter
		counter++
		sccStack = append(sccStack, root)
		onStack[root] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if to, ok := edge(f.v, f.child); ok {
				f.child++
				w := int32(to)
				if index[w] == unvisited {
					index[w], lowlink[w] = counter, counter
					counter++
					sccStack = append(sccStack, w)
					onStack[w] = true
					frames = append(frames, tarjanFrame{v: w})
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}
			// f.v is exhausted; pop and maybe emit a component.
			v := f.v
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				if p := frames[len(frames)-1].v; lowlink[v] < lowlink[p] {
					lowlink[p] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var comp []int32
				for {
					w := sccStack[len(sccStack)-1]
					sccStack = sccStack[:len(sccStack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, comp)
			}
		}
	}

	return g.applyEquivalences(sccs)
}

// applyEquivalences rewrites the graph per component list, in the emission
// (reverse topological) order.
func (g *ImplicationGraph) applyEquivalences(sccs [][]int32) bool {
	numEquivalences := 0
	g.reverseTopo = g.reverseTopo[:0]

	for _, comp := range sccs {
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		rep := Literal(comp[0])
		g.reverseTopo = append(g.reverseTopo, rep)

		if len(comp) == 1 {
			if numEquivalences > 0 {
				g.remapImplications(rep)
			}
			continue
		}

		for i := 1; i < len(comp); i++ {
			lit := Literal(comp[i])
			// x and ¬x sort next to each other; both in one component is UNSAT.
			if Literal(comp[i-1]).Negated() == lit {
				g.opts.Logger.Info("trivially UNSAT: x equivalent to not(x)",
					zap.Stringer("literal", lit))

				return false
			}
			g.isRedundant.Set(uint(lit.Index()))
			g.representativeOf[lit.Index()] = rep
		}

		// Merge every member's implication list into the representative's,
		// then keep the equivalence as explicit rep <=> member edges.
		g.remapImplications(rep)
		repNode := &g.nodes[rep.Index()]
		for i := 1; i < len(comp); i++ {
			lit := Literal(comp[i])
			for _, implied := range g.nodes[lit.Index()].literals {
				if rr := g.RepresentativeOf(implied); rr != rep {
					repNode.literals = append(repNode.literals, rr)
				}
			}
			repNode.literals = append(repNode.literals, lit)
			g.nodes[lit.Index()].literals = []Literal{rep}
			g.nodes[lit.Index()].offsets = nil

			if g.opts.Proof != nil {
				// Equivalence clauses are admitted as axioms of the rewritten
				// problem; downstream inferences chain through them.
				g.opts.Proof.AddProblemClause(BinaryClausePtr(lit.Negated(), rep))
				g.opts.Proof.AddProblemClause(BinaryClausePtr(rep.Negated(), lit))
			}
		}
		if !g.cleanUpImplicationList(rep) {
			return false
		}
		numEquivalences += len(comp) - 1
	}

	g.isDAG = true
	if numEquivalences > 0 {
		if !g.rebuildAtMostOnes() {
			return false
		}
		if !g.Propagate() {
			return false
		}
	}
	g.opts.Logger.Info("equivalence detection done",
		zap.Int("equivalences", numEquivalences),
		zap.Int64("implications", g.numImplications))

	return true
}

// remapImplications rewrites a node's implication list through the current
// representatives.
func (g *ImplicationGraph) remapImplications(l Literal) {
	lits := g.nodes[l.Index()].literals
	for i, implied := range lits {
		lits[i] = g.RepresentativeOf(implied)
	}
}

// cleanUpImplicationList dedupes a list, drops self-entries and detects
// l → ¬l, which fixes ¬l. Returns false on unsatisfiability.
func (g *ImplicationGraph) cleanUpImplicationList(l Literal) bool {
	lits := g.nodes[l.Index()].literals
	seen := make(map[Literal]struct{}, len(lits))
	kept := 0
	mustFix := false
	for _, implied := range lits {
		if implied == l {
			continue
		}
		if implied == l.Negated() {
			mustFix = true
			continue
		}
		if _, dup := seen[implied]; dup {
			continue
		}
		seen[implied] = struct{}{}
		lits[kept] = implied
		kept++
	}
	g.nodes[l.Index()].literals = lits[:kept]

	if mustFix {
		// l implies its own negation: l must be false. The degenerate binary
		// clause {¬l, ¬l} is admitted as an axiom of the rewritten problem so
		// the unit inference below can chain through it.
		axiom := BinaryClausePtr(l.Negated(), l.Negated())
		if g.opts.Proof != nil {
			g.opts.Proof.AddProblemClause(axiom)
		}
		if !g.FixLiteral(l.Negated(), []ClausePtr{axiom}) {
			return false
		}
	}

	return true
}

// rebuildAtMostOnes re-adds every stored group through the current
// representatives, dropping fixed members.
func (g *ImplicationGraph) rebuildAtMostOnes() bool {
	old := g.amoBuffer
	g.amoBuffer = nil
	for i := range g.nodes {
		g.nodes[i].offsets = nil
	}

	assignment := g.trail.Assignment()
	for start := 0; start < len(old); {
		size := int(old[start])
		members := old[start+1 : start+1+size]
		start += 1 + size

		filtered := make([]Literal, 0, len(members))
		for _, m := range members {
			r := g.RepresentativeOf(m)
			switch {
			case assignment.LiteralIsFalse(r) && g.trail.AssignmentLevel(r) == 0:
				continue
			case assignment.LiteralIsTrue(r) && g.trail.AssignmentLevel(r) == 0:
				// One member is fixed true: every other member is false.
				for _, other := range members {
					or := g.RepresentativeOf(other)
					if or != r && !g.FixLiteral(or.Negated(), nil) {
						return false
					}
				}
				filtered = nil
			default:
				filtered = append(filtered, r)
			}
			if filtered == nil {
				break
			}
		}
		if len(filtered) > 1 {
			if !g.AddAtMostOne(filtered) {
				return false
			}
		}
	}
	// Re-adding groups may clear the DAG flag; the structure is still the
	// one equivalence detection produced.
	g.isDAG = true

	return true
}

// descendants returns the set of representative literals reachable from l
// through one or more implication edges, skipping redundant targets. Results
// are memoised in memo; every edge traversal decrements budget.
func (g *ImplicationGraph) descendants(l Literal, memo map[Literal]*roaring.Bitmap, budget *int64) *roaring.Bitmap {
	if d, ok := memo[l]; ok {
		return d
	}
	d := roaring.New()
	memo[l] = d // pre-insert: cycles degrade to partial sets, never loop
	for _, implied := range g.nodes[l.Index()].literals {
		if *budget <= 0 {
			break
		}
		*budget--
		if g.IsRedundant(implied) {
			continue
		}
		d.Add(uint32(implied.Index()))
		d.Or(g.descendants(implied, memo, budget))
	}

	return d
}

// ComputeTransitiveReduction removes every direct edge r → d for which d is
// reachable from r through another node, keeping the store symmetric by
// removing ¬d → ¬r at the same time. When both v and ¬v are reachable from
// r, r is false (failed-literal probing) and its negation is fixed.
//
// The pass runs over representatives in reverse topological order and is
// bounded by the given edge-visit budget. It returns sat=false on a root
// conflict and completed=false when the budget ran out; in both cases the
// a→b ⇔ ¬b→¬a invariant holds for the edges already processed.
func (g *ImplicationGraph) ComputeTransitiveReduction(budget int64) (sat, completed bool) {
	if !g.isDAG {
		if !g.DetectEquivalences() {
			return false, false
		}
	}

	memo := make(map[Literal]*roaring.Bitmap)
	assignment := g.trail.Assignment()
	numRemoved := 0
	numFailed := 0

	for _, r := range g.reverseTopo {
		if budget <= 0 {
			g.opts.Logger.Info("transitive reduction budget exhausted",
				zap.Int("removed", numRemoved))

			return true, false
		}
		if g.IsRedundant(r) || assignment.LiteralIsAssigned(r) {
			continue
		}
		direct := g.nodes[r.Index()].literals
		if len(direct) == 0 {
			continue
		}

		// Union of the strict descendants of every direct child: anything in
		// there is reachable from r via at least two hops.
		multiHop := roaring.New()
		reachable := roaring.New()
		for _, c := range direct {
			if g.IsRedundant(c) {
				continue
			}
			multiHop.Or(g.descendants(c, memo, &budget))
			reachable.Add(uint32(c.Index()))
		}
		reachable.Or(multiHop)

		// Failed-literal probing: v and ¬v both reachable means ¬r is fixed.
		failed := false
		reachable.Iterate(func(x uint32) bool {
			if reachable.Contains(uint32(Literal(x).Negated().Index())) {
				failed = true

				return false
			}

			return true
		})
		if failed {
			numFailed++
			if !g.FixLiteral(r.Negated(), nil) {
				return false, false
			}
			if !g.Propagate() {
				return false, false
			}
			continue
		}

		// Drop the direct edges shadowed by a longer path, both directions.
		kept := 0
		for _, d := range direct {
			if !g.IsRedundant(d) && multiHop.Contains(uint32(d.Index())) {
				g.removeDirectedEdge(d.Negated(), r.Negated())
				g.numImplications -= 2
				numRemoved++
				continue
			}
			direct[kept] = d
			kept++
		}
		g.nodes[r.Index()].literals = direct[:kept]
	}

	g.opts.Logger.Info("transitive reduction done",
		zap.Int("removed", numRemoved),
		zap.Int("failed_literals", numFailed))

	return true, true
}

// removeDirectedEdge drops one occurrence of from → to.
func (g *ImplicationGraph) removeDirectedEdge(from, to Literal) {
	lits := g.nodes[from.Index()].literals
	for i, implied := range lits {
		if implied == to {
			lits[i] = lits[len(lits)-1]
			g.nodes[from.Index()].literals = lits[:len(lits)-1]

			return
		}
	}
}

// ExtendAtMostOne grows a seed at-most-one with every literal whose negation
// is implied by all seed members: the intersection of the members' descendant
// sets, negated, joins the group. Used to generate stronger cutting planes.
func (g *ImplicationGraph) ExtendAtMostOne(seed []Literal, budget int64) []Literal {
	if len(seed) == 0 {
		return nil
	}

	memo := make(map[Literal]*roaring.Bitmap)
	var intersection *roaring.Bitmap
	for _, l := range seed {
		d := g.descendants(g.RepresentativeOf(l), memo, &budget)
		if intersection == nil {
			intersection = d.Clone()
		} else {
			intersection.And(d)
		}
		if intersection.IsEmpty() {
			break
		}
	}

	out := append([]Literal(nil), seed...)
	in := make(map[Literal]struct{}, len(seed))
	for _, l := range seed {
		in[g.RepresentativeOf(l)] = struct{}{}
	}
	intersection.Iterate(func(x uint32) bool {
		cand := Literal(x).Negated()
		if _, dup := in[cand]; !dup {
			out = append(out, cand)
		}

		return true
	})

	return out
}
