package rev_test

import (
	"testing"

	"github.com/katalvlaran/lvlsolve/rev"
)

func benchSaveRestore(b *testing.B, c rev.Compression) {
	b.Helper()

	const span = 4096
	tr := rev.NewTrail[int64](rev.WithCompression(c))
	vals := make([]int64, span)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mark := tr.Len()
		for j := range vals {
			tr.Save(&vals[j])
			vals[j] = int64(i + j)
		}
		tr.RestoreTo(mark)
	}
}

func BenchmarkTrail_NoCompression(b *testing.B) { benchSaveRestore(b, rev.NoCompression) }

func BenchmarkTrail_Zlib(b *testing.B) { benchSaveRestore(b, rev.Zlib) }

func BenchmarkTrail_Snappy(b *testing.B) { benchSaveRestore(b, rev.Snappy) }
