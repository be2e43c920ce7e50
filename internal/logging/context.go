package logging

import (
	"context"
	"log/slog"
	"os"
)

type loggerContextKey struct{}

// fallbackLogger serves code paths that never had a request logger attached,
// like background cache refreshes that outlive their originating request.
var fallbackLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil)).
	With(slog.String("logger", "fallback"))

func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallbackLogger
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// AddMetaToContext attaches request-scoped fields (clinic id, patient id,
// handler name) to the context logger. Parent loggers are unaffected.
func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return AddToContext(ctx, FromContext(ctx).With(args...))
}
