// Package logger builds slog loggers for the API gateway.
//
// Loggers are JSON-formatted by default and can be decorated with
// context extractors that pull request-scoped values (request ID,
// resolved API version) into every log record:
//
//	log := logger.New(logger.Config{Level: "debug"},
//		func(ctx context.Context) (slog.Attr, bool) {
//			if id, ok := ctx.Value(requestIDKey{}).(string); ok {
//				return slog.String("request_id", id), true
//			}
//			return slog.Attr{}, false
//		},
//	)
//
// NewWithSentry additionally forwards warnings and errors to Sentry when
// a DSN is configured, falling back to plain stdout logging otherwise.
package logger
