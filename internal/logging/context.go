// Package logging carries a *slog.Logger through context so library
// callbacks and demo commands share one structured logging setup.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type loggerContextKey struct{}

// New creates the process logger: JSON on stderr, debug level when verbose.
func New(service string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return logger.With(slog.String("service", service))
}

// FromContext returns the logger stored in ctx. Callers never get nil; a
// tagged fallback is returned when the context carries no logger.
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger)
	if !ok || logger == nil {
		fallback := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		return fallback.With(slog.String("logger", "fallback"))
	}
	return logger
}

// AddToContext stores logger in ctx.
func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// AddMetaToContext annotates the context logger with args for everything
// downstream.
func AddMetaToContext(ctx context.Context, args ...slog.Attr) context.Context {
	logger := FromContext(ctx)

	// Convert our []slog.Attr to []any
	anySlice := make([]any, len(args))
	for i, arg := range args {
		anySlice[i] = arg
	}

	return AddToContext(ctx, logger.With(anySlice...))
}
