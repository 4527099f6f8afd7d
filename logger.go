package knnviz

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/knnviz/model"
)

// Logger wraps slog.Logger with knnviz-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSession adds a session field to the logger.
func (l *Logger) WithSession(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("session", id),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogPredict logs a prediction.
func (l *Logger) LogPredict(ctx context.Context, k, points int, class model.Class, err error) {
	if err != nil {
		l.ErrorContext(ctx, "predict failed",
			"k", k,
			"points", points,
			"error", err,
		)
		return
	}
	if class == model.ClassNone {
		l.DebugContext(ctx, "predict absent",
			"k", k,
			"points", points,
		)
		return
	}
	l.DebugContext(ctx, "predict completed",
		"k", k,
		"points", points,
		"class", class.String(),
	)
}

// LogAddPoint logs the creation of a training point.
func (l *Logger) LogAddPoint(ctx context.Context, p model.LabeledPoint, total int) {
	l.DebugContext(ctx, "training point added",
		"x", p.X,
		"y", p.Y,
		"class", p.Class.String(),
		"total", total,
	)
}

// LogClear logs a clear of the training set.
func (l *Logger) LogClear(ctx context.Context, removed int) {
	l.InfoContext(ctx, "training set cleared",
		"removed", removed,
	)
}

// LogRequest logs a served HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	level := slog.LevelDebug
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	l.Log(ctx, level, "request served",
		"method", method,
		"path", path,
		"status", status,
		"duration", duration,
	)
}
