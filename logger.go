package kmeanslab

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with kmeanslab-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, level, true)
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, level, false)
}

// NewWriterLogger creates a Logger writing to w, as JSON when json is true.
// Use it to route logs into a rotating file.
func NewWriterLogger(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// WithRequestID adds a request_id field to the logger.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// LogInitialize logs a dataset initialization.
func (l *Logger) LogInitialize(ctx context.Context, k int, mode Mode, points int, err error) {
	if err != nil {
		l.WarnContext(ctx, "initialize rejected",
			"k", k,
			"mode", mode,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dataset initialized",
			"k", k,
			"mode", mode,
			"points", points,
		)
	}
}

// LogPlaceCentroid logs a manual centroid placement.
func (l *Logger) LogPlaceCentroid(ctx context.Context, placed, k int, err error) {
	if err != nil {
		l.WarnContext(ctx, "centroid placement rejected",
			"placed", placed,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "centroid placed",
			"placed", placed,
			"k", k,
		)
	}
}

// LogStep logs a single iteration.
func (l *Logger) LogStep(ctx context.Context, reassigned int, converged bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "step rejected",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "step completed",
			"reassigned", reassigned,
			"converged", converged,
		)
	}
}

// LogConverge logs a convergence run.
func (l *Logger) LogConverge(ctx context.Context, iterations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "converge failed",
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "converge completed",
			"iterations", iterations,
		)
	}
}

// LogExport logs a snapshot export.
func (l *Logger) LogExport(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot exported",
			"name", name,
			"bytes", size,
		)
	}
}
