package sat_test

import (
	"testing"

	"github.com/katalvlaran/lvlsolve/sat"
)

// BenchmarkPropagate_Chain measures unit propagation down a long binary
// implication chain.
func BenchmarkPropagate_Chain(b *testing.B) {
	const n = 1024
	trail := sat.NewTrail(n)
	g := sat.NewImplicationGraph(trail, n)
	for i := 0; i < n-1; i++ {
		g.AddImplication(
			sat.NewLiteral(sat.BooleanVariable(i), true),
			sat.NewLiteral(sat.BooleanVariable(i+1), true))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trail.EnqueueSearchDecision(sat.NewLiteral(0, true))
		if !g.Propagate() {
			b.Fatal("unexpected conflict")
		}
		trail.BacktrackToLevel(0)
		g.Untrail(0)
	}
}

// BenchmarkPropagate_Ternary measures watched-literal walks over ternary
// clauses sharing variables.
func BenchmarkPropagate_Ternary(b *testing.B) {
	const n = 512
	trail := sat.NewTrail(n)
	m := sat.NewClauseManager(trail, n)
	for i := 0; i < n-2; i++ {
		m.AddClause([]sat.Literal{
			sat.NewLiteral(sat.BooleanVariable(i), true),
			sat.NewLiteral(sat.BooleanVariable(i+1), true),
			sat.NewLiteral(sat.BooleanVariable(i+2), true),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trail.EnqueueSearchDecision(sat.NewLiteral(0, false))
		if !m.Propagate() {
			b.Fatal("unexpected conflict")
		}
		trail.BacktrackToLevel(0)
		m.Untrail(0)
	}
}
