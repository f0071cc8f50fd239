package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds the Sentry integration settings.
type SentryConfig struct {
	DSN         string `koanf:"dsn"`
	Environment string `koanf:"environment"`
	// ErrorsOnly limits Sentry log forwarding to errors; by default
	// warnings are forwarded too.
	ErrorsOnly bool `koanf:"errors_only"`
}

// NewWithSentry creates a logger that writes to stdout and forwards
// warnings and errors to Sentry. With an empty DSN, or if Sentry fails
// to initialize, it degrades to stdout-only logging.
func NewWithSentry(cfg Config, sc SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	base := newBaseHandler(cfg)
	if sc.DSN == "" {
		return slog.New(newContextHandler(base, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sc.DSN,
		Environment: sc.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("sentry init failed", slog.String("error", err.Error()))
		return slog.New(newContextHandler(base, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if sc.ErrorsOnly {
		logLevel = []slog.Level{slog.LevelError}
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(newContextHandler(newFanoutHandler(base, sentryHandler), extractors...))
}
