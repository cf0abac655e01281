package kmeanslab

import (
	"errors"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInitialize is called after each initialize, err is nil if successful.
	RecordInitialize(k int, duration time.Duration, err error)

	// RecordReset is called after each reset.
	RecordReset()

	// RecordPlaceCentroid is called after each manual centroid placement.
	RecordPlaceCentroid(err error)

	// RecordStep is called after each step. reassigned is the number of points
	// that changed cluster.
	RecordStep(reassigned int, duration time.Duration, err error)

	// RecordConverge is called after each converge run, including failed ones.
	RecordConverge(iterations int, duration time.Duration, err error)

	// RecordExport is called after each export. size is the encoded size in bytes.
	RecordExport(size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInitialize(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordReset()                               {}
func (NoopMetricsCollector) RecordPlaceCentroid(error)                  {}
func (NoopMetricsCollector) RecordStep(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordConverge(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordExport(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InitializeCount    atomic.Int64
	InitializeErrors   atomic.Int64
	ResetCount         atomic.Int64
	PlacementCount     atomic.Int64
	PlacementErrors    atomic.Int64
	StepCount          atomic.Int64
	StepErrors         atomic.Int64
	StepTotalNanos     atomic.Int64
	Reassigned         atomic.Int64
	ConvergeCount      atomic.Int64
	ConvergeErrors     atomic.Int64
	ConvergeTimeouts   atomic.Int64
	ConvergeIterations atomic.Int64
	ConvergeTotalNanos atomic.Int64
	ExportCount        atomic.Int64
	ExportErrors       atomic.Int64
	ExportBytes        atomic.Int64
}

// RecordInitialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInitialize(k int, duration time.Duration, err error) {
	b.InitializeCount.Add(1)
	if err != nil {
		b.InitializeErrors.Add(1)
	}
}

// RecordReset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReset() {
	b.ResetCount.Add(1)
}

// RecordPlaceCentroid implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPlaceCentroid(err error) {
	b.PlacementCount.Add(1)
	if err != nil {
		b.PlacementErrors.Add(1)
	}
}

// RecordStep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStep(reassigned int, duration time.Duration, err error) {
	b.StepCount.Add(1)
	b.StepTotalNanos.Add(duration.Nanoseconds())
	b.Reassigned.Add(int64(reassigned))
	if err != nil {
		b.StepErrors.Add(1)
	}
}

// RecordConverge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConverge(iterations int, duration time.Duration, err error) {
	b.ConvergeCount.Add(1)
	b.ConvergeIterations.Add(int64(iterations))
	b.ConvergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ConvergeErrors.Add(1)
		if errors.Is(err, ErrConvergenceTimeout) {
			b.ConvergeTimeouts.Add(1)
		}
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(size int, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportBytes.Add(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InitializeCount:    b.InitializeCount.Load(),
		InitializeErrors:   b.InitializeErrors.Load(),
		ResetCount:         b.ResetCount.Load(),
		PlacementCount:     b.PlacementCount.Load(),
		PlacementErrors:    b.PlacementErrors.Load(),
		StepCount:          b.StepCount.Load(),
		StepErrors:         b.StepErrors.Load(),
		StepAvgNanos:       avg(b.StepTotalNanos.Load(), b.StepCount.Load()),
		Reassigned:         b.Reassigned.Load(),
		ConvergeCount:      b.ConvergeCount.Load(),
		ConvergeErrors:     b.ConvergeErrors.Load(),
		ConvergeTimeouts:   b.ConvergeTimeouts.Load(),
		ConvergeIterations: b.ConvergeIterations.Load(),
		ConvergeAvgNanos:   avg(b.ConvergeTotalNanos.Load(), b.ConvergeCount.Load()),
		ExportCount:        b.ExportCount.Load(),
		ExportErrors:       b.ExportErrors.Load(),
		ExportBytes:        b.ExportBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InitializeCount    int64 `json:"initialize_count"`
	InitializeErrors   int64 `json:"initialize_errors"`
	ResetCount         int64 `json:"reset_count"`
	PlacementCount     int64 `json:"placement_count"`
	PlacementErrors    int64 `json:"placement_errors"`
	StepCount          int64 `json:"step_count"`
	StepErrors         int64 `json:"step_errors"`
	StepAvgNanos       int64 `json:"step_avg_nanos"`
	Reassigned         int64 `json:"reassigned"`
	ConvergeCount      int64 `json:"converge_count"`
	ConvergeErrors     int64 `json:"converge_errors"`
	ConvergeTimeouts   int64 `json:"converge_timeouts"`
	ConvergeIterations int64 `json:"converge_iterations"`
	ConvergeAvgNanos   int64 `json:"converge_avg_nanos"`
	ExportCount        int64 `json:"export_count"`
	ExportErrors       int64 `json:"export_errors"`
	ExportBytes        int64 `json:"export_bytes"`
}

// MultiMetricsCollector fans every record out to several collectors.
type MultiMetricsCollector []MetricsCollector

// RecordInitialize implements MetricsCollector.
func (m MultiMetricsCollector) RecordInitialize(k int, duration time.Duration, err error) {
	for _, c := range m {
		c.RecordInitialize(k, duration, err)
	}
}

// RecordReset implements MetricsCollector.
func (m MultiMetricsCollector) RecordReset() {
	for _, c := range m {
		c.RecordReset()
	}
}

// RecordPlaceCentroid implements MetricsCollector.
func (m MultiMetricsCollector) RecordPlaceCentroid(err error) {
	for _, c := range m {
		c.RecordPlaceCentroid(err)
	}
}

// RecordStep implements MetricsCollector.
func (m MultiMetricsCollector) RecordStep(reassigned int, duration time.Duration, err error) {
	for _, c := range m {
		c.RecordStep(reassigned, duration, err)
	}
}

// RecordConverge implements MetricsCollector.
func (m MultiMetricsCollector) RecordConverge(iterations int, duration time.Duration, err error) {
	for _, c := range m {
		c.RecordConverge(iterations, duration, err)
	}
}

// RecordExport implements MetricsCollector.
func (m MultiMetricsCollector) RecordExport(size int, duration time.Duration, err error) {
	for _, c := range m {
		c.RecordExport(size, duration, err)
	}
}
