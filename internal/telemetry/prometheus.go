// Package telemetry exports session metrics to Prometheus.
package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/kmeanslab"
)

var _ kmeanslab.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements kmeanslab.MetricsCollector.
type PrometheusCollector struct {
	opLatency   *prometheus.HistogramVec
	ops         *prometheus.CounterVec
	reassigned  prometheus.Counter
	iterations  prometheus.Histogram
	exportBytes prometheus.Counter
	clusters    prometheus.Gauge
}

// NewPrometheusCollector creates the collectors and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kmeanslab_operation_latency_seconds",
			Help:    "Latency of session operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kmeanslab_operations_total",
			Help: "Session operations by outcome",
		}, []string{"op", "status"}),
		reassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kmeanslab_reassigned_points_total",
			Help: "Points that changed cluster across steps",
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kmeanslab_converge_iterations",
			Help:    "Iterations per converge run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
		exportBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kmeanslab_export_bytes_total",
			Help: "Bytes written by snapshot exports",
		}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kmeanslab_clusters",
			Help: "Cluster count of the last successful initialize",
		}),
	}

	reg.MustRegister(c.opLatency, c.ops, c.reassigned, c.iterations, c.exportBytes, c.clusters)
	return c
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, kmeanslab.ErrConvergenceTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func (c *PrometheusCollector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.ops.WithLabelValues(op, s).Inc()
	if d > 0 {
		c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	}
}

// RecordInitialize implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordInitialize(k int, d time.Duration, err error) {
	c.observe("initialize", d, err)
	if err == nil {
		c.clusters.Set(float64(k))
	}
}

// RecordReset implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordReset() {
	c.observe("reset", 0, nil)
}

// RecordPlaceCentroid implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordPlaceCentroid(err error) {
	c.observe("place_centroid", 0, err)
}

// RecordStep implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordStep(reassigned int, d time.Duration, err error) {
	c.observe("step", d, err)
	c.reassigned.Add(float64(reassigned))
}

// RecordConverge implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordConverge(iterations int, d time.Duration, err error) {
	c.observe("converge", d, err)
	if iterations > 0 {
		c.iterations.Observe(float64(iterations))
	}
}

// RecordExport implements kmeanslab.MetricsCollector.
func (c *PrometheusCollector) RecordExport(size int, d time.Duration, err error) {
	c.observe("export", d, err)
	if err == nil {
		c.exportBytes.Add(float64(size))
	}
}
