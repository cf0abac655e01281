package kmeanslab

import (
	"log/slog"
	"time"

	"github.com/hupe1980/kmeanslab/internal/rng"
)

const (
	// DefaultDatasetSize is the number of points generated by Initialize.
	DefaultDatasetSize = 200

	// DefaultK is the cluster count of a session that was never initialized.
	DefaultK = 3

	// DefaultMaxIterations caps Converge.
	DefaultMaxIterations = 1000
)

// DefaultTolerance is the convergence closeness test (|a-b| <= 1e-8 + 1e-5*|b|).
var DefaultTolerance = Tolerance{Abs: 1e-8, Rel: 1e-5}

// RandSource is the randomness a Session draws from: normal values for the
// dataset, permutations for random initialization, and uniform values for
// re-seeding empty clusters.
type RandSource interface {
	Float64() float64
	NormFloat64() float64
	Perm(n int) []int
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rand             RandSource
	datasetSize      int
	tolerance        Tolerance
	maxIterations    int
	parallelism      int
}

// Option configures a Session.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kmeanslab.NewJSONLogger(slog.LevelInfo)
//	s := kmeanslab.New(kmeanslab.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kmeanslab.BasicMetricsCollector{}
//	s := kmeanslab.New(kmeanslab.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Steps: %d, Avg latency: %dns\n", stats.StepCount, stats.StepAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithRandSource injects the random source. Tests use it to pin dataset
// generation, centroid sampling, and empty-cluster re-seeding.
func WithRandSource(src RandSource) Option {
	return func(o *options) {
		if src != nil {
			o.rand = src
		}
	}
}

// WithSeed is shorthand for WithRandSource with a seeded goroutine-safe source.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rand = rng.New(seed)
	}
}

// WithDatasetSize sets how many points Initialize generates.
// Values below 1 keep the default.
func WithDatasetSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.datasetSize = n
		}
	}
}

// WithTolerance sets the default convergence tolerance.
func WithTolerance(tol Tolerance) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithMaxIterations sets the default Converge iteration cap.
// Zero or less disables the cap.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithParallelism sets how many goroutines label points during assignment.
// Small datasets are always labelled on the calling goroutine.
func WithParallelism(workers int) Option {
	return func(o *options) {
		o.parallelism = workers
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		datasetSize:      DefaultDatasetSize,
		tolerance:        DefaultTolerance,
		maxIterations:    DefaultMaxIterations,
		parallelism:      1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.rand == nil {
		o.rand = rng.New(time.Now().UnixNano())
	}
	return o
}

type convergeOptions struct {
	tolerance     Tolerance
	maxIterations int
}

// ConvergeOption overrides Session defaults for a single Converge call.
type ConvergeOption func(*convergeOptions)

// WithConvergeTolerance overrides the convergence tolerance.
func WithConvergeTolerance(tol Tolerance) ConvergeOption {
	return func(o *convergeOptions) {
		o.tolerance = tol
	}
}

// WithConvergeMaxIterations overrides the iteration cap.
// Zero or less disables the cap.
func WithConvergeMaxIterations(n int) ConvergeOption {
	return func(o *convergeOptions) {
		o.maxIterations = n
	}
}
