package rev_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlsolve/rev"
)

func TestTrail_SaveRestore_SingleLocation(t *testing.T) {
	tr := rev.NewTrail[int64]()

	var x int64 = 42
	mark := tr.Len()
	tr.Save(&x)
	x = 7
	tr.RestoreTo(mark)

	assert.Equal(t, int64(42), x)
	assert.Equal(t, 0, tr.Len())
}

func TestTrail_RepeatedSaves_ComposeBack(t *testing.T) {
	tr := rev.NewTrail[int64]()

	var x int64 = 1
	mark := tr.Len()
	tr.Save(&x)
	x = 2
	tr.Save(&x) // redundant under the same marker, still correct
	x = 3
	tr.RestoreTo(mark)

	assert.Equal(t, int64(1), x)
}

func TestTrail_NestedMarks(t *testing.T) {
	tr := rev.NewTrail[int64]()

	var x, y int64 = 10, 20
	m1 := tr.Len()
	tr.Save(&x)
	x = 11

	m2 := tr.Len()
	tr.Save(&y)
	y = 21
	tr.Save(&x)
	x = 12

	tr.RestoreTo(m2)
	assert.Equal(t, int64(11), x)
	assert.Equal(t, int64(20), y)

	tr.RestoreTo(m1)
	assert.Equal(t, int64(10), x)
	assert.Equal(t, int64(20), y)
}

func TestTrail_EmptyLevel_LeavesSizeUnchanged(t *testing.T) {
	tr := rev.NewTrail[uint64]()

	mark := tr.Len()
	tr.RestoreTo(mark)
	assert.Equal(t, mark, tr.Len())
}

// crossBlockScenario exercises saves far past several block boundaries and
// checks every location is restored, for one compression policy.
func crossBlockScenario(t *testing.T, c rev.Compression) {
	t.Helper()

	const blockSize = 16
	const n = 10 * blockSize

	tr := rev.NewTrail[int64](rev.WithBlockSize(blockSize), rev.WithCompression(c))

	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i * 3)
	}

	mark := tr.Len()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		tr.Save(&vals[j])
		vals[j] = -int64(i)
	}
	require.Equal(t, n, tr.Len())

	tr.RestoreTo(mark)
	for i := range vals {
		require.Equal(t, int64(i*3), vals[i], "location %d", i)
	}
}

func TestTrail_CrossBlock_NoCompression(t *testing.T) {
	crossBlockScenario(t, rev.NoCompression)
}

func TestTrail_CrossBlock_Zlib(t *testing.T) {
	crossBlockScenario(t, rev.Zlib)
}

func TestTrail_CrossBlock_Snappy(t *testing.T) {
	crossBlockScenario(t, rev.Snappy)
}

func TestTrail_PartialRestore_AcrossBoundary(t *testing.T) {
	const blockSize = 4
	tr := rev.NewTrail[int64](rev.WithBlockSize(blockSize))

	var x int64
	marks := make([]int, 0, 3*blockSize)
	for i := 0; i < 3*blockSize; i++ {
		marks = append(marks, tr.Len())
		tr.Save(&x)
		x = int64(i + 1)
	}

	// Unwind to the middle of the second block.
	tr.RestoreTo(marks[blockSize+1])
	assert.Equal(t, int64(blockSize+1), x)

	// Then all the way down.
	tr.RestoreTo(0)
	assert.Equal(t, int64(0), x)
}

func TestWithBlockSize_PanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { rev.WithBlockSize(0) })
	assert.Panics(t, func() { rev.WithBlockSize(-5) })
}
