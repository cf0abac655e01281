package kmeanslab

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kmeanslab/internal/kmeans"
)

var (
	// ErrInvalidArgument is returned when an argument is out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPreconditionFailed is returned when an operation is not allowed in the
	// current session state.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrConvergenceTimeout is returned when converge hits its iteration cap.
	ErrConvergenceTimeout = errors.New("convergence timeout")

	// ErrNoDataset is returned when centroids are placed or iterated before
	// Initialize has generated a dataset.
	ErrNoDataset = fmt.Errorf("%w: no dataset initialized", ErrPreconditionFailed)

	// ErrNoStore is returned by Export when no blob store is given.
	ErrNoStore = errors.New("no blob store configured")
)

// ErrInvalidK indicates a cluster count outside [1, Max].
type ErrInvalidK struct {
	K   int
	Max int
}

func (e *ErrInvalidK) Error() string {
	return fmt.Sprintf("invalid number of clusters %d: must be between 1 and %d", e.K, e.Max)
}

func (e *ErrInvalidK) Unwrap() error { return ErrInvalidArgument }

// ErrInvalidCentroid indicates a manually placed centroid with a NaN or
// infinite coordinate.
type ErrInvalidCentroid struct {
	Point Point
}

func (e *ErrInvalidCentroid) Error() string {
	return fmt.Sprintf("invalid centroid (%v, %v): coordinates must be finite", e.Point[0], e.Point[1])
}

func (e *ErrInvalidCentroid) Unwrap() error { return ErrInvalidArgument }

// ErrNotEnoughCentroids indicates step or converge was called before all k
// centroids were placed.
type ErrNotEnoughCentroids struct {
	Placed int
	K      int
}

func (e *ErrNotEnoughCentroids) Error() string {
	return "not enough centroids placed manually"
}

func (e *ErrNotEnoughCentroids) Unwrap() error { return ErrPreconditionFailed }

// ErrCentroidsComplete indicates a manual placement after all k centroids
// were already placed.
type ErrCentroidsComplete struct {
	K int
}

func (e *ErrCentroidsComplete) Error() string {
	return fmt.Sprintf("all %d centroids already placed", e.K)
}

func (e *ErrCentroidsComplete) Unwrap() error { return ErrPreconditionFailed }

// ErrNotConverged indicates converge stopped at its iteration cap.
//
// The underlying error, if any, is available via errors.Unwrap.
type ErrNotConverged struct {
	Iterations int
	cause      error
}

func (e *ErrNotConverged) Error() string {
	return fmt.Sprintf("centroids did not converge within %d iterations", e.Iterations)
}

func (e *ErrNotConverged) Is(target error) bool { return target == ErrConvergenceTimeout }

func (e *ErrNotConverged) Unwrap() error { return e.cause }

func translateError(err error, iterations int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kmeans.ErrMaxIterations) {
		return &ErrNotConverged{Iterations: iterations, cause: err}
	}
	return err
}
