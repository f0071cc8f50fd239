package internal

import (
	"context"
	"log/slog"
	"time"
)

// RunOption configures server runtime behavior.
type RunOption func(*runtimeConfig)

func buildRunConfig(opts ...RunOption) runtimeConfig {
	cfg := runtimeConfig{
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Logger sets the runtime logger used for lifecycle messages.
func Logger(l *slog.Logger) RunOption {
	return func(cfg *runtimeConfig) {
		cfg.logger = l
	}
}

// ShutdownTimeout sets the graceful shutdown deadline.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(cfg *runtimeConfig) {
		if d > 0 {
			cfg.shutdownTimeout = d
		}
	}
}

// StartupHook registers a function to run before the listener opens.
// A startup hook error aborts the run.
//
// Example:
//
//	apigate.StartupHook(func(ctx context.Context) error {
//	    return db.Migrate(ctx, pool, migrations.FS, log)
//	})
func StartupHook(fn func(context.Context) error) RunOption {
	return func(cfg *runtimeConfig) {
		cfg.startupHooks = append(cfg.startupHooks, fn)
	}
}

// ShutdownHook registers a cleanup function run during shutdown.
//
// Example:
//
//	apigate.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(cfg *runtimeConfig) {
		cfg.shutdownHooks = append(cfg.shutdownHooks, fn)
	}
}

// BaseContext sets the root context for the server; canceling it
// triggers graceful shutdown.
func BaseContext(ctx context.Context) RunOption {
	return func(cfg *runtimeConfig) {
		cfg.baseCtx = ctx
	}
}
