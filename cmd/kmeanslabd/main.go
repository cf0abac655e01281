// Command kmeanslabd serves an interactive K-means session over HTTP.
//
// Usage:
//
//	kmeanslabd [-config kmeanslabd.toml] [-addr :5000]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hupe1980/kmeanslab"
	"github.com/hupe1980/kmeanslab/internal/config"
	"github.com/hupe1980/kmeanslab/internal/resource"
	"github.com/hupe1980/kmeanslab/internal/telemetry"
	"github.com/hupe1980/kmeanslab/server"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "kmeanslabd:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Export)
	if err != nil {
		return fmt.Errorf("export store: %w", err)
	}
	compression, err := kmeanslab.ParseCompression(cfg.Export.Compression)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	basic := &kmeanslab.BasicMetricsCollector{}

	session := kmeanslab.New(append(sessionOptions(cfg.Clustering),
		kmeanslab.WithLogger(logger),
		kmeanslab.WithMetricsCollector(kmeanslab.MultiMetricsCollector{basic, telemetry.NewPrometheusCollector(reg)}),
	)...)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Config{
		Session:     session,
		Store:       store,
		Compression: compression,
		Limits: resource.NewController(resource.Config{
			RequestsPerSecond:     cfg.Limits.RequestsPerSecond,
			Burst:                 cfg.Limits.Burst,
			MaxConcurrentConverge: cfg.Limits.MaxConcurrentConverge,
		}),
		ConvergeTimeout: cfg.Limits.ConvergeTimeout.Duration,
		Metrics:         basic,
		Prometheus:      telemetry.Handler(reg),
		Logger:          logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout.Duration,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "export", cfg.Export.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func sessionOptions(c config.Clustering) []kmeanslab.Option {
	opts := []kmeanslab.Option{
		kmeanslab.WithDatasetSize(c.DatasetSize),
		kmeanslab.WithTolerance(kmeanslab.Tolerance{Abs: c.AbsTolerance, Rel: c.RelTolerance}),
		kmeanslab.WithMaxIterations(c.MaxIterations),
		kmeanslab.WithParallelism(c.Parallelism),
	}
	if c.Seed != 0 {
		opts = append(opts, kmeanslab.WithSeed(c.Seed))
	}
	return opts
}

func shutdownTimeout(s config.Server) time.Duration {
	if s.ShutdownTimeout.Duration <= 0 {
		return 15 * time.Second
	}
	return s.ShutdownTimeout.Duration
}
