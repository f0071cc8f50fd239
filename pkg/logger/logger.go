package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	// Unknown or empty values default to info.
	Level string `koanf:"level"`
	// Format selects the output encoding: json (default) or text.
	Format string `koanf:"format"`
}

// ContextExtractor extracts a slog attribute from a request context.
// Returning false skips the attribute for that record.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New creates a logger writing to stdout, decorated with the given
// context extractors. Extractors run on every log call so request-scoped
// values stay fresh.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(newContextHandler(newBaseHandler(cfg), extractors...))
}

// NewDiscard creates a logger that drops everything. Use it as the
// default where logging is optional.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newBaseHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
