package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With attaches a logger carrying fields to ctx, derived from the one already
// there.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// From returns the request scoped logger, or the process logger.
func From(ctx context.Context) *slog.Logger {
	return FromOr(ctx, nil)
}

// FromOr prefers the request scoped logger and falls back to fallback, then to
// the process logger.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return LoggerWrapper()
}
