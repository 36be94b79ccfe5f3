package seedrand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicStreams(t *testing.T) {
	a := New("DOC-1", "ghost")
	b := New("DOC-1", "ghost")
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Uint64(), b.Uint64(), "stream diverged at draw %d", i)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	a := New("DOC-1", "ghost")
	b := New("DOC-1", "fingerprint")
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Zero(t, same, "distinct channels should not share a stream")
}

func TestDocumentsAreIndependent(t *testing.T) {
	a := New("DOC-1", "ghost")
	b := New("DOC-2", "ghost")
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestIntRangeBounds(t *testing.T) {
	s := New("DOC-1", "bounds")
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		v := s.IntRange(250, 254)
		require.GreaterOrEqual(t, v, 250)
		require.LessOrEqual(t, v, 254)
		seen[v] = true
	}
	assert.Len(t, seen, 5, "all values in the inclusive range should occur")
}

func TestSampleDistinctInRange(t *testing.T) {
	s := New("DOC-1", "sample")
	picks := s.Sample(1000, 40)
	require.Len(t, picks, 40)
	seen := map[int]bool{}
	for _, p := range picks {
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, 1000)
		require.False(t, seen[p], "duplicate pick %d", p)
		seen[p] = true
	}
}

func TestSampleExhaustive(t *testing.T) {
	s := New("DOC-1", "sample")
	picks := s.Sample(7, 7)
	seen := map[int]bool{}
	for _, p := range picks {
		seen[p] = true
	}
	assert.Len(t, seen, 7)
}

func TestNormFloat64Moments(t *testing.T) {
	s := New("DOC-1", "normal")
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := s.NormFloat64()
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, math.Sqrt(variance), 0.05)
}
