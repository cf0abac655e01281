package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kmeanslab"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordInitialize(4, time.Millisecond, nil)
	c.RecordStep(7, time.Millisecond, nil)
	c.RecordStep(0, time.Millisecond, errors.New("not ready"))
	c.RecordConverge(3, time.Millisecond, &kmeanslab.ErrNotConverged{Iterations: 3})
	c.RecordExport(512, time.Millisecond, nil)
	c.RecordReset()

	assert.Equal(t, 4.0, testutil.ToFloat64(c.clusters))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.reassigned))
	assert.Equal(t, 512.0, testutil.ToFloat64(c.exportBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("step", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("step", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("converge", "timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.iterations))
}

func TestPrometheusCollector_Session(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)
	s := kmeanslab.New(kmeanslab.WithSeed(1), kmeanslab.WithMetricsCollector(c))

	ctx := context.Background()
	_, err := s.Initialize(ctx, 3, kmeanslab.ModeRandom)
	require.NoError(t, err)
	_, err = s.Converge(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("converge", "success")))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "kmeanslab_converge_iterations")
	assert.Contains(t, string(body), `kmeanslab_clusters 3`)
}

func TestNewPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusCollector(reg)
	assert.Panics(t, func() { NewPrometheusCollector(reg) })
}
