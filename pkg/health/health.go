// Package health exposes liveness and readiness probes for the gateway.
//
// Readiness runs named checks (Redis, PostgreSQL) in parallel with a
// shared timeout and reports per-check status. Liveness only confirms
// the process is serving.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 5 * time.Second

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency. The redis and db packages return
// closures with this signature.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its probe.
type Checks map[string]CheckFunc

// Report aggregates the outcome of a readiness run.
type Report struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Check is the outcome of a single probe.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Option configures probe behavior.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds the whole readiness run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for failed probes.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Liveness always responds 200 OK.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Report{Status: StatusHealthy})
	}
}

// Readiness runs all checks in parallel and responds 200 when every
// probe passes, 503 otherwise.
func Readiness(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		report := run(r.Context(), checks, cfg)

		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func run(ctx context.Context, checks Checks, cfg *config) Report {
	if len(checks) == 0 {
		return Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]Check, len(checks))
	failed := false

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			result := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			results[name] = result
			failed = failed || result.Status == StatusUnhealthy
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	if failed {
		status = StatusUnhealthy
	}
	return Report{Status: status, Checks: results}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
