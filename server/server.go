// Package server exposes a kmeanslab.Session over HTTP.
//
// Routes:
//
//	POST /initialize   {"num_clusters": 3, "init_method": "random"}
//	POST /reset
//	POST /centroids    {"x": 0.5, "y": -1}
//	POST /step
//	POST /converge     {"tolerance": {"abs": 1e-8, "rel": 1e-5}, "max_iterations": 1000}
//	POST /export       {"compression": "zstd"}
//	GET  /exports
//	GET  /exports/:id
//	DELETE /exports/:id
//	GET  /state
//	GET  /metrics
//	GET  /metrics/prometheus
//	GET  /             scatter plot of the current state
//
// Errors are returned as {"error": "..."}. Responses are gzip-compressed when
// the client accepts it.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/hupe1980/kmeanslab"
	"github.com/hupe1980/kmeanslab/blobstore"
	"github.com/hupe1980/kmeanslab/internal/resource"
)

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-ID"

// Config wires a Server.
type Config struct {
	Session *kmeanslab.Session

	// Store receives exports and backs the /exports routes. If nil, they
	// answer 503.
	Store       blobstore.Store
	Compression kmeanslab.Compression

	// Limits rate-limits requests and bounds concurrent converge calls.
	// If nil, nothing is limited.
	Limits *resource.Controller

	// ConvergeTimeout bounds one converge call, including the wait for a
	// converge slot. Zero means no timeout.
	ConvergeTimeout time.Duration

	// Metrics is reported by GET /metrics when set.
	Metrics *kmeanslab.BasicMetricsCollector

	// Prometheus serves GET /metrics/prometheus when set.
	Prometheus http.Handler

	Logger *kmeanslab.Logger
}

// Server is the HTTP front end of one session.
type Server struct {
	cfg    Config
	engine *gin.Engine
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = kmeanslab.NoopLogger()
	}

	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(cfg.Logger), rateLimit(cfg.Limits))

	s.engine.POST("/initialize", s.initialize)
	s.engine.POST("/reset", s.reset)
	s.engine.POST("/centroids", s.placeCentroid)
	s.engine.POST("/step", s.step)
	s.engine.POST("/converge", s.converge)
	s.engine.POST("/export", s.export)
	s.engine.GET("/exports", s.listExports)
	s.engine.GET("/exports/:id", s.getExport)
	s.engine.DELETE("/exports/:id", s.deleteExport)
	s.engine.GET("/state", s.state)
	s.engine.GET("/metrics", s.metrics)
	if cfg.Prometheus != nil {
		s.engine.GET("/metrics/prometheus", gin.WrapH(cfg.Prometheus))
	}
	s.engine.GET("/", s.chart)

	return s
}

// Handler returns the gzip-wrapped router.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.engine)
}
