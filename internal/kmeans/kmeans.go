package kmeans

import (
	"context"
	"errors"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrMaxIterations is returned by Converge when the iteration cap is reached
// before the centroids settle.
var ErrMaxIterations = errors.New("kmeans: iteration limit reached")

// minParallelPoints is the dataset size below which AssignParallel labels
// points on the calling goroutine.
const minParallelPoints = 4096

// Uniform draws values in [0, 1).
type Uniform interface {
	Float64() float64
}

// Tolerance is the closeness test used to detect convergence.
// Two values a and b are close when |a-b| <= Abs + Rel*|b|.
type Tolerance struct {
	Abs float64
	Rel float64
}

// DefaultTolerance matches the usual allclose defaults.
var DefaultTolerance = Tolerance{Abs: 1e-8, Rel: 1e-5}

func (t Tolerance) close(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= t.Abs+t.Rel*math.Abs(b)
}

// Equal reports whether two centroid sets have the same length and every
// coordinate pair is close under tol.
func Equal(a, b []Point, tol Tolerance) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !tol.close(a[i][0], b[i][0]) || !tol.close(a[i][1], b[i][1]) {
			return false
		}
	}
	return true
}

// Nearest returns the index of the centroid closest to p.
// Ties go to the lowest index.
func Nearest(p Point, centroids []Point) int {
	best := 0
	minDist := math.Inf(1)
	for j := range centroids {
		d := floats.Distance(p[:], centroids[j][:], 2)
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// Assign groups points by nearest centroid. It returns one cluster per
// centroid in centroid order; clusters may be empty.
func Assign(centroids, points []Point) []Cluster {
	labels := make([]int, len(points))
	labelRange(labels, centroids, points, 0, len(points))
	return gather(len(centroids), labels, points)
}

// AssignParallel is Assign with the labelling split across workers.
// The result is identical to Assign for the same input.
func AssignParallel(ctx context.Context, centroids, points []Point, workers int) ([]Cluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(points)
	if workers <= 1 || n < minParallelPoints {
		return Assign(centroids, points), nil
	}

	labels := make([]int, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			labelRange(labels, centroids, points, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gather(len(centroids), labels, points), nil
}

func labelRange(labels []int, centroids, points []Point, lo, hi int) {
	for i := lo; i < hi; i++ {
		labels[i] = Nearest(points[i], centroids)
	}
}

func gather(k int, labels []int, points []Point) []Cluster {
	clusters := newClusters(k)
	if k == 0 {
		return clusters
	}
	for i, label := range labels {
		clusters[label].Points = append(clusters[label].Points, points[i])
		clusters[label].Members.Add(uint32(i))
	}
	return clusters
}

// Recompute returns the mean of every cluster. An empty cluster gets a fresh
// point drawn uniformly from [0, 1)^2 so it can win points back later.
func Recompute(clusters []Cluster, src Uniform) []Point {
	centroids := make([]Point, len(clusters))
	for i, c := range clusters {
		if len(c.Points) == 0 {
			centroids[i] = Point{src.Float64(), src.Float64()}
			continue
		}
		xs := make([]float64, len(c.Points))
		ys := make([]float64, len(c.Points))
		for j, p := range c.Points {
			xs[j], ys[j] = p[0], p[1]
		}
		centroids[i] = Point{stat.Mean(xs, nil), stat.Mean(ys, nil)}
	}
	return centroids
}

// Iterate runs one assign/recompute round.
func Iterate(ctx context.Context, centroids, points []Point, src Uniform, workers int) ([]Cluster, []Point, error) {
	clusters, err := AssignParallel(ctx, centroids, points, workers)
	if err != nil {
		return nil, nil, err
	}
	return clusters, Recompute(clusters, src), nil
}

// Config controls Converge.
type Config struct {
	Tolerance Tolerance
	// MaxIterations caps the number of rounds. Zero or less disables the cap.
	MaxIterations int
	// Workers is passed to AssignParallel.
	Workers int
}

// Result is the outcome of Converge.
type Result struct {
	Centroids  []Point
	Clusters   []Cluster
	Iterations int
	Converged  bool
}

// Converge iterates from centroids until a round leaves every centroid
// unchanged within cfg.Tolerance.
//
// On ErrMaxIterations or a context error the returned Result still carries the
// last computed centroids and clusters.
func Converge(ctx context.Context, centroids, points []Point, src Uniform, cfg Config) (Result, error) {
	res := Result{Centroids: Clone(centroids)}
	for cfg.MaxIterations <= 0 || res.Iterations < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		clusters, next, err := Iterate(ctx, res.Centroids, points, src, cfg.Workers)
		if err != nil {
			return res, err
		}
		done := Equal(res.Centroids, next, cfg.Tolerance)
		res.Centroids = next
		res.Clusters = clusters
		res.Iterations++
		if done {
			res.Converged = true
			return res, nil
		}
	}
	return res, ErrMaxIterations
}
