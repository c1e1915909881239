package ingest

import (
	"context"

	"github.com/go-kit/log"
)

type loggerKey struct{}

// WithLogger returns a context whose pipeline logs go to logger, typically one
// carrying request scoped keys.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context, fallback log.Logger) log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(log.Logger); ok {
		return logger
	}
	return fallback
}
