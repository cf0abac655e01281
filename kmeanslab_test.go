package kmeanslab

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed normal draws, returns the identity
// permutation, and a constant uniform value.
type scriptedSource struct {
	normals []float64
	uniform float64
	i       int
}

func (s *scriptedSource) NormFloat64() float64 {
	v := s.normals[s.i%len(s.normals)]
	s.i++
	return v
}

func (s *scriptedSource) Float64() float64 { return s.uniform }

func (s *scriptedSource) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// fourPointSession returns a manual-mode session over
// (0,0), (0,1), (10,0), (10,1) with centroids (0,0) and (10,0).
func fourPointSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	src := &scriptedSource{normals: []float64{0, 0, 0, 1, 10, 0, 10, 1}, uniform: 0.5}
	s := New(append([]Option{WithRandSource(src), WithDatasetSize(4)}, opts...)...)

	ctx := context.Background()
	res, err := s.Initialize(ctx, 2, ModeManual)
	require.NoError(t, err)
	require.Equal(t, []Point{{0, 0}, {0, 1}, {10, 0}, {10, 1}}, res.Points)
	require.Empty(t, res.Centroids)

	_, err = s.PlaceCentroid(ctx, Point{0, 0})
	require.NoError(t, err)
	_, err = s.PlaceCentroid(ctx, Point{10, 0})
	require.NoError(t, err)
	return s
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeManual, ParseMode("manual"))
	assert.Equal(t, ModeManual, ParseMode(" Manual "))
	assert.Equal(t, ModeRandom, ParseMode("random"))
	assert.Equal(t, ModeRandom, ParseMode("kmeans++"))
	assert.Equal(t, ModeRandom, ParseMode(""))
}

func TestNew_Defaults(t *testing.T) {
	s := New(WithSeed(1))
	st := s.State()

	assert.Equal(t, DefaultK, st.K)
	assert.Empty(t, st.Points)
	assert.NotNil(t, st.Centroids)
	assert.False(t, st.Ready)

	_, err := s.Step(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestInitialize_Random(t *testing.T) {
	s := New(WithSeed(42))
	res, err := s.Initialize(context.Background(), 5, ModeRandom)
	require.NoError(t, err)

	require.Len(t, res.Points, DefaultDatasetSize)
	require.Len(t, res.Centroids, 5)

	seen := make(map[Point]bool)
	for _, c := range res.Centroids {
		assert.Contains(t, res.Points, c)
		assert.False(t, seen[c], "centroids must be distinct dataset points")
		seen[c] = true
	}

	st := s.State()
	assert.Equal(t, 5, st.K)
	assert.Equal(t, ModeRandom, st.Mode)
	assert.True(t, st.Ready)
}

func TestInitialize_UnknownModeIsRandom(t *testing.T) {
	s := New(WithSeed(3))
	res, err := s.Initialize(context.Background(), 2, ParseMode("bogus"))
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 2)
}

func TestInitialize_Manual(t *testing.T) {
	s := New(WithSeed(42))
	res, err := s.Initialize(context.Background(), 3, ModeManual)
	require.NoError(t, err)

	assert.Len(t, res.Points, DefaultDatasetSize)
	assert.NotNil(t, res.Centroids)
	assert.Empty(t, res.Centroids)
}

func TestInitialize_InvalidK(t *testing.T) {
	s := New(WithSeed(42))
	before, err := s.Initialize(context.Background(), 2, ModeRandom)
	require.NoError(t, err)

	for _, k := range []int{0, -1, DefaultDatasetSize + 1} {
		_, err := s.Initialize(context.Background(), k, ModeRandom)
		assert.ErrorIs(t, err, ErrInvalidArgument, "k=%d", k)

		var invalid *ErrInvalidK
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, k, invalid.K)
	}

	st := s.State()
	assert.Equal(t, 2, st.K)
	assert.Equal(t, before.Points, st.Points)
	assert.Equal(t, before.Centroids, st.Centroids)
}

func TestInitialize_KEqualsDatasetSize(t *testing.T) {
	s := New(WithSeed(9), WithDatasetSize(10))
	res, err := s.Initialize(context.Background(), 10, ModeRandom)
	require.NoError(t, err)
	assert.ElementsMatch(t, res.Points, res.Centroids)
}

func TestInitialize_ReplacesState(t *testing.T) {
	s := fourPointSession(t)
	_, err := s.Step(context.Background())
	require.NoError(t, err)

	_, err = s.Initialize(context.Background(), 1, ModeManual)
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, 1, st.K)
	assert.Empty(t, st.Centroids)
	assert.Nil(t, st.Clusters)
	assert.Zero(t, st.Iterations)
}

func TestInitialize_ResultIsCopy(t *testing.T) {
	s := New(WithSeed(5))
	res, err := s.Initialize(context.Background(), 2, ModeRandom)
	require.NoError(t, err)

	res.Points[0] = Point{1e9, 1e9}
	res.Centroids[0] = Point{1e9, 1e9}

	st := s.State()
	assert.NotEqual(t, Point{1e9, 1e9}, st.Points[0])
	assert.NotEqual(t, Point{1e9, 1e9}, st.Centroids[0])
}

func TestPlaceCentroid(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(1))
	_, err := s.Initialize(ctx, 2, ModeManual)
	require.NoError(t, err)

	_, err = s.Step(ctx)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.EqualError(t, err, "not enough centroids placed manually")

	res, err := s.PlaceCentroid(ctx, Point{-50, 50})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Placed)
	assert.Equal(t, 1, res.Remaining)

	_, err = s.Converge(ctx)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	res, err = s.PlaceCentroid(ctx, Point{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []Point{{-50, 50}, {0.5, 0.5}}, res.Centroids)
	assert.Zero(t, res.Remaining)

	_, err = s.PlaceCentroid(ctx, Point{1, 1})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	var complete *ErrCentroidsComplete
	assert.True(t, errors.As(err, &complete))

	_, err = s.Step(ctx)
	assert.NoError(t, err)
}

func TestPlaceCentroid_BeforeInitialize(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(1))

	for i := 0; i < DefaultK; i++ {
		_, err := s.PlaceCentroid(ctx, Point{float64(i), 0})
		assert.ErrorIs(t, err, ErrNoDataset)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	}
	assert.Empty(t, s.State().Centroids)

	_, err := s.Step(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.Converge(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = s.Initialize(ctx, 2, ModeManual)
	require.NoError(t, err)
	_, err = s.PlaceCentroid(ctx, Point{0, 0})
	assert.NoError(t, err)
}

func TestPlaceCentroid_RejectsNonFinite(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(1))
	_, err := s.Initialize(ctx, 2, ModeManual)
	require.NoError(t, err)

	for _, p := range []Point{{math.NaN(), 0}, {0, math.Inf(1)}, {math.Inf(-1), 1}} {
		_, err := s.PlaceCentroid(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	assert.Empty(t, s.State().Centroids)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(8))
	res, err := s.Initialize(ctx, 4, ModeRandom)
	require.NoError(t, err)

	s.Reset(ctx)
	s.Reset(ctx)

	st := s.State()
	assert.Empty(t, st.Centroids)
	assert.Equal(t, 4, st.K)
	assert.Equal(t, res.Points, st.Points)

	_, err = s.Step(ctx)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestStep_FourPoints(t *testing.T) {
	ctx := context.Background()
	s := fourPointSession(t)

	first, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0.5}, {10, 0.5}}, first.Centroids)
	require.Len(t, first.Clusters, 2)
	assert.Equal(t, []Point{{0, 0}, {0, 1}}, first.Clusters[0].Points)
	assert.Equal(t, []Point{{10, 0}, {10, 1}}, first.Clusters[1].Points)
	assert.False(t, first.Converged)
	assert.Zero(t, first.Reassigned)

	second, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Centroids, second.Centroids)
	assert.True(t, second.Converged)
	assert.Zero(t, second.Reassigned)

	assert.Equal(t, 2, s.State().Iterations)
}

func TestStep_ReturnsAssignmentForPreviousCentroids(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(21))
	_, err := s.Initialize(ctx, 3, ModeRandom)
	require.NoError(t, err)

	for range 5 {
		before := s.State().Centroids
		res, err := s.Step(ctx)
		require.NoError(t, err)

		total := 0
		for i, c := range res.Clusters {
			total += c.Len()
			for _, p := range c.Points {
				nearest := before[0]
				best := math.Inf(1)
				for _, cand := range before {
					d := math.Hypot(p[0]-cand[0], p[1]-cand[1])
					if d < best {
						best, nearest = d, cand
					}
				}
				assert.Equal(t, nearest, before[i])
			}
		}
		assert.Equal(t, DefaultDatasetSize, total)
	}
}

func TestStep_EmptyClusterReseeded(t *testing.T) {
	ctx := context.Background()
	src := &scriptedSource{normals: []float64{0, 0, 0, 1}, uniform: 0.25}
	s := New(WithRandSource(src), WithDatasetSize(2))
	_, err := s.Initialize(ctx, 2, ModeManual)
	require.NoError(t, err)
	_, err = s.PlaceCentroid(ctx, Point{0, 0})
	require.NoError(t, err)
	_, err = s.PlaceCentroid(ctx, Point{100, 100})
	require.NoError(t, err)

	res, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, Point{0, 0.5}, res.Centroids[0])
	assert.Equal(t, Point{0.25, 0.25}, res.Centroids[1])
	assert.Empty(t, res.Clusters[1].Points)
}

func TestConverge_FourPoints(t *testing.T) {
	s := fourPointSession(t)

	res, err := s.Converge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Point{{0, 0.5}, {10, 0.5}}, res.Centroids)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, []Point{{0, 0}, {0, 1}}, res.Clusters[0].Points)
	assert.Equal(t, []Point{{10, 0}, {10, 1}}, res.Clusters[1].Points)
}

func TestConverge_FixedPoint(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(77))
	_, err := s.Initialize(ctx, 4, ModeRandom)
	require.NoError(t, err)

	res, err := s.Converge(ctx)
	require.NoError(t, err)
	assert.Positive(t, res.Iterations)

	step, err := s.Step(ctx)
	require.NoError(t, err)
	assert.True(t, step.Converged)
	for i := range res.Centroids {
		assert.InDelta(t, res.Centroids[i][0], step.Centroids[i][0], 1e-6)
		assert.InDelta(t, res.Centroids[i][1], step.Centroids[i][1], 1e-6)
	}
}

func TestConverge_Timeout(t *testing.T) {
	ctx := context.Background()
	s := fourPointSession(t)

	res, err := s.Converge(ctx, WithConvergeMaxIterations(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConvergenceTimeout)

	var nc *ErrNotConverged
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, 1, nc.Iterations)

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, []Point{{0, 0.5}, {10, 0.5}}, s.State().Centroids)
}

func TestConverge_SessionMaxIterations(t *testing.T) {
	s := fourPointSession(t, WithMaxIterations(1))
	_, err := s.Converge(context.Background())
	assert.ErrorIs(t, err, ErrConvergenceTimeout)
}

func TestConverge_Cancelled(t *testing.T) {
	s := fourPointSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Converge(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Point{{0, 0}, {10, 0}}, s.State().Centroids)
}

func TestConverge_Tolerance(t *testing.T) {
	s := fourPointSession(t)
	res, err := s.Converge(context.Background(), WithConvergeTolerance(Tolerance{Abs: 1}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
}

func TestSession_Parallelism(t *testing.T) {
	ctx := context.Background()
	seq := New(WithSeed(13), WithDatasetSize(10000))
	par := New(WithSeed(13), WithDatasetSize(10000), WithParallelism(4))

	_, err := seq.Initialize(ctx, 5, ModeRandom)
	require.NoError(t, err)
	_, err = par.Initialize(ctx, 5, ModeRandom)
	require.NoError(t, err)

	a, err := seq.Converge(ctx)
	require.NoError(t, err)
	b, err := par.Converge(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.Iterations, b.Iterations)
	assert.Equal(t, a.Centroids, b.Centroids)
}

func TestSession_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(99))
	_, err := s.Initialize(ctx, 3, ModeRandom)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch i % 4 {
			case 0:
				_, _ = s.Step(ctx)
			case 1:
				_ = s.State()
			case 2:
				_, _ = s.Converge(ctx)
			default:
				_, _ = s.Initialize(ctx, 3, ModeRandom)
			}
		}()
	}
	wg.Wait()

	st := s.State()
	assert.Len(t, st.Centroids, st.K)
}
