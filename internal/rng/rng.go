package rng

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/kmeanslab/internal/kmeans"
)

// Source encapsulates a random number generator and its seed.
// It is thread-safe.
type Source struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// New creates a new Source with the specified seed.
func New(seed int64) *Source {
	return &Source{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset rewinds the source to its initial seed.
func (r *Source) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *Source) Seed() int64 {
	return r.seed
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *Source) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normally distributed value.
func (r *Source) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *Source) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Normal draws standard normal values.
type Normal interface {
	NormFloat64() float64
}

// Permuter produces random permutations.
type Permuter interface {
	Perm(n int) []int
}

// NormalPoints returns n points whose coordinates are independent standard
// normal draws.
func NormalPoints(src Normal, n int) []kmeans.Point {
	points := make([]kmeans.Point, n)
	for i := range points {
		points[i] = kmeans.Point{src.NormFloat64(), src.NormFloat64()}
	}
	return points
}

// Sample returns k distinct indices from [0,n) chosen uniformly without
// replacement. It panics if k > n.
func Sample(src Permuter, n, k int) []int {
	if k > n {
		panic("rng: sample larger than population")
	}
	return src.Perm(n)[:k]
}
