package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Reset(t *testing.T) {
	src := New(4711)

	a := []float64{src.Float64(), src.NormFloat64(), src.Float64()}
	src.Reset()
	b := []float64{src.Float64(), src.NormFloat64(), src.Float64()}

	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), src.Seed())
}

func TestSource_SameSeedSameStream(t *testing.T) {
	assert.Equal(t, New(1).Perm(20), New(1).Perm(20))
	assert.NotEqual(t, New(1).Perm(20), New(2).Perm(20))
}

func TestSource_Float64Range(t *testing.T) {
	src := New(9)
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestNormalPoints(t *testing.T) {
	points := NormalPoints(New(4711), 2000)
	require.Len(t, points, 2000)

	var sx, sy float64
	for _, p := range points {
		sx += p.X()
		sy += p.Y()
	}
	// Means of standard normal draws stay near zero.
	assert.InDelta(t, 0.0, sx/2000, 0.1)
	assert.InDelta(t, 0.0, sy/2000, 0.1)
}

func TestSample(t *testing.T) {
	src := New(4711)

	for _, k := range []int{1, 5, 50, 200} {
		idx := Sample(src, 200, k)
		require.Len(t, idx, k)

		seen := make(map[int]bool, k)
		for _, i := range idx {
			assert.GreaterOrEqual(t, i, 0)
			assert.Less(t, i, 200)
			assert.False(t, seen[i], "duplicate index %d", i)
			seen[i] = true
		}
	}
}

func TestSample_TooLarge(t *testing.T) {
	assert.Panics(t, func() { Sample(New(1), 3, 4) })
}
