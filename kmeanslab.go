package kmeanslab

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/kmeanslab/internal/kmeans"
	"github.com/hupe1980/kmeanslab/internal/rng"
)

// Point is a 2D coordinate, encoded to JSON as [x, y].
type Point = kmeans.Point

// Cluster is the set of points assigned to one centroid, encoded to JSON as
// its point list.
type Cluster = kmeans.Cluster

// Tolerance is the closeness test for convergence:
// |a-b| <= Abs + Rel*|b| for every coordinate.
type Tolerance = kmeans.Tolerance

// Mode selects how Initialize places the first centroids.
type Mode string

const (
	// ModeRandom samples k distinct dataset points as centroids.
	ModeRandom Mode = "random"
	// ModeManual leaves the centroids empty for PlaceCentroid.
	ModeManual Mode = "manual"
)

// ParseMode maps an init method name to a Mode. Anything other than
// "manual" selects ModeRandom.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeManual)) {
		return ModeManual
	}
	return ModeRandom
}

// InitializeResult is returned by Initialize.
type InitializeResult struct {
	Points    []Point `json:"data_points"`
	Centroids []Point `json:"centroids"`
}

// PlaceResult is returned by PlaceCentroid.
type PlaceResult struct {
	Centroids []Point `json:"centroids"`
	Placed    int     `json:"placed"`
	Remaining int     `json:"remaining"`
}

// StepResult is returned by Step.
type StepResult struct {
	Centroids []Point   `json:"centroids"`
	Clusters  []Cluster `json:"clusters"`
	// Converged reports that this step left every centroid in place.
	Converged bool `json:"converged"`
	// Reassigned counts points whose cluster changed since the last step.
	Reassigned int `json:"reassigned"`
}

// ConvergeResult is returned by Converge.
type ConvergeResult struct {
	Centroids  []Point   `json:"centroids"`
	Clusters   []Cluster `json:"clusters"`
	Iterations int       `json:"iterations"`
}

// State is a point-in-time copy of a Session.
type State struct {
	K          int       `json:"k"`
	Mode       Mode      `json:"mode"`
	Points     []Point   `json:"data_points"`
	Centroids  []Point   `json:"centroids"`
	Clusters   []Cluster `json:"clusters"`
	Iterations int       `json:"iterations"`
	Ready      bool      `json:"ready"`
}

// Session is a steppable K-means run over one dataset.
//
// All methods are safe for concurrent use; they are serialized by a single
// mutex so points and centroids are never observed half-updated.
type Session struct {
	mu   sync.Mutex
	opts options

	k          int
	mode       Mode
	points     []Point
	centroids  []Point
	clusters   []Cluster // assignment behind the current centroids
	iterations int
}

// New creates a Session with no dataset and k = DefaultK.
func New(optFns ...Option) *Session {
	return &Session{
		opts:      applyOptions(optFns),
		k:         DefaultK,
		mode:      ModeRandom,
		centroids: []Point{},
	}
}

// Initialize replaces the dataset with freshly generated standard normal
// points and sets the cluster count to k.
//
// In ModeRandom the centroids are k distinct dataset points. In ModeManual
// they are left empty until PlaceCentroid has been called k times.
// On error the session is left unchanged.
func (s *Session) Initialize(ctx context.Context, k int, mode Mode) (*InitializeResult, error) {
	start := time.Now()

	s.mu.Lock()
	res, err := s.initialize(k, mode)
	s.mu.Unlock()

	points := 0
	if res != nil {
		points = len(res.Points)
	}
	s.opts.metricsCollector.RecordInitialize(k, time.Since(start), err)
	s.opts.logger.LogInitialize(ctx, k, mode, points, err)
	return res, err
}

func (s *Session) initialize(k int, mode Mode) (*InitializeResult, error) {
	n := s.opts.datasetSize
	if k <= 0 || k > n {
		return nil, &ErrInvalidK{K: k, Max: n}
	}
	if mode != ModeManual {
		mode = ModeRandom
	}

	points := rng.NormalPoints(s.opts.rand, n)
	centroids := []Point{}
	if mode == ModeRandom {
		for _, idx := range rng.Sample(s.opts.rand, n, k) {
			centroids = append(centroids, points[idx])
		}
	}

	s.k = k
	s.mode = mode
	s.points = points
	s.centroids = centroids
	s.clusters = nil
	s.iterations = 0

	return &InitializeResult{
		Points:    kmeans.Clone(points),
		Centroids: kmeans.Clone(centroids),
	}, nil
}

// Reset clears the centroids, keeping the dataset and k. It is idempotent.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.centroids = []Point{}
	s.clusters = nil
	s.iterations = 0
	s.mu.Unlock()

	s.opts.metricsCollector.RecordReset()
	s.opts.logger.DebugContext(ctx, "centroids reset")
}

// PlaceCentroid appends an externally chosen centroid. Coordinates are not
// bounded but must be finite. Placing before Initialize fails with
// ErrNoDataset, and placing more than k centroids with ErrCentroidsComplete;
// both match ErrPreconditionFailed.
func (s *Session) PlaceCentroid(ctx context.Context, p Point) (*PlaceResult, error) {
	s.mu.Lock()
	res, err := s.placeCentroid(p)
	placed, k := len(s.centroids), s.k
	s.mu.Unlock()

	s.opts.metricsCollector.RecordPlaceCentroid(err)
	s.opts.logger.LogPlaceCentroid(ctx, placed, k, err)
	return res, err
}

func (s *Session) placeCentroid(p Point) (*PlaceResult, error) {
	if len(s.points) == 0 {
		return nil, ErrNoDataset
	}
	if !p.IsFinite() {
		return nil, &ErrInvalidCentroid{Point: p}
	}
	if len(s.centroids) >= s.k {
		return nil, &ErrCentroidsComplete{K: s.k}
	}
	s.centroids = append(s.centroids, p)
	s.clusters = nil
	return &PlaceResult{
		Centroids: kmeans.Clone(s.centroids),
		Placed:    len(s.centroids),
		Remaining: s.k - len(s.centroids),
	}, nil
}

// Step runs one assign/recompute round.
//
// The returned clusters are the assignment used to compute the returned
// centroids. Step fails with ErrPreconditionFailed until exactly k centroids
// are present.
func (s *Session) Step(ctx context.Context) (*StepResult, error) {
	start := time.Now()

	s.mu.Lock()
	res, err := s.step(ctx)
	s.mu.Unlock()

	reassigned, converged := 0, false
	if res != nil {
		reassigned, converged = res.Reassigned, res.Converged
	}
	s.opts.metricsCollector.RecordStep(reassigned, time.Since(start), err)
	s.opts.logger.LogStep(ctx, reassigned, converged, err)
	return res, err
}

func (s *Session) step(ctx context.Context) (*StepResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	clusters, next, err := kmeans.Iterate(ctx, s.centroids, s.points, s.opts.rand, s.opts.parallelism)
	if err != nil {
		return nil, err
	}

	res := &StepResult{
		Centroids:  kmeans.Clone(next),
		Clusters:   clusters,
		Converged:  kmeans.Equal(s.centroids, next, s.opts.tolerance),
		Reassigned: kmeans.Reassigned(s.clusters, clusters),
	}

	s.centroids = next
	s.clusters = clusters
	s.iterations++
	return res, nil
}

// Converge repeats Step until the centroids stop moving.
//
// It fails with ErrPreconditionFailed until exactly k centroids are present,
// and with ErrConvergenceTimeout when the iteration cap is reached. In the
// latter case, and when ctx is cancelled mid-run, the session keeps the last
// computed centroids.
func (s *Session) Converge(ctx context.Context, optFns ...ConvergeOption) (*ConvergeResult, error) {
	start := time.Now()

	s.mu.Lock()
	res, err := s.converge(ctx, optFns)
	s.mu.Unlock()

	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	s.opts.metricsCollector.RecordConverge(iterations, time.Since(start), err)
	s.opts.logger.LogConverge(ctx, iterations, err)
	return res, err
}

func (s *Session) converge(ctx context.Context, optFns []ConvergeOption) (*ConvergeResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	co := convergeOptions{
		tolerance:     s.opts.tolerance,
		maxIterations: s.opts.maxIterations,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&co)
		}
	}

	out, err := kmeans.Converge(ctx, s.centroids, s.points, s.opts.rand, kmeans.Config{
		Tolerance:     co.tolerance,
		MaxIterations: co.maxIterations,
		Workers:       s.opts.parallelism,
	})

	// Keep whatever was computed, even on timeout or cancellation.
	if out.Iterations > 0 {
		s.centroids = out.Centroids
		s.clusters = out.Clusters
		s.iterations += out.Iterations
	}

	res := &ConvergeResult{
		Centroids:  kmeans.Clone(out.Centroids),
		Clusters:   out.Clusters,
		Iterations: out.Iterations,
	}
	return res, translateError(err, out.Iterations)
}

func (s *Session) ready() error {
	if len(s.points) == 0 {
		return ErrNoDataset
	}
	if len(s.centroids) != s.k {
		return &ErrNotEnoughCentroids{Placed: len(s.centroids), K: s.k}
	}
	return nil
}

// State returns a copy of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		K:          s.k,
		Mode:       s.mode,
		Points:     kmeans.Clone(s.points),
		Centroids:  kmeans.Clone(s.centroids),
		Clusters:   s.clusters,
		Iterations: s.iterations,
		Ready:      s.ready() == nil,
	}
}
