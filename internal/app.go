package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/apigate/pkg/health"
	"github.com/dmitrymomot/apigate/pkg/logger"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the gateway lifecycle: routing, the middleware
// pipeline, health endpoints, and graceful shutdown. App is immutable
// after creation; all configuration happens via New.
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	middlewares             []Middleware
	handlers                []Handler
}

// New creates an application with the given options.
//
// Example:
//
//	app := apigate.New(
//	    apigate.WithMiddleware(middlewares.RequestID()),
//	    apigate.WithHandlers(handlers.NewPosts(repo)),
//	)
func New(opts ...Option) *App {
	a := &App{
		router: chi.NewRouter(),
		logger: logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.errorHandler == nil {
		a.errorHandler = defaultErrorHandler
	}
	if a.notFoundHandler == nil {
		a.notFoundHandler = func(c Context) error {
			return ErrEndpointNotFound("Endpoint not found")
		}
	}
	if a.methodNotAllowedHandler == nil {
		a.methodNotAllowedHandler = func(c Context) error {
			return ErrEndpointNotFound("Method not allowed for this endpoint")
		}
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	err := app.Run(":8080", apigate.ShutdownHook(redis.Shutdown(client)))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}
	cfg.handler = a.router
	cfg.address = addr
	return runServer(cfg)
}

// setupRoutes wires middleware, fallback handlers, health endpoints and
// registered route handlers into the chi router.
func (a *App) setupRoutes() {
	// Fallbacks go through the full pipeline so route misses still
	// produce the standard envelope and pass the gates.
	a.router.NotFound(a.serve(compose(a.notFoundHandler, a.middlewares)))
	a.router.MethodNotAllowed(a.serve(compose(a.methodNotAllowedHandler, a.middlewares)))

	// Health probes bypass the pipeline: they must answer even when
	// maintenance mode or rate limiting would block everything else.
	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.Liveness())
		a.router.Get(a.healthConfig.readinessPath, health.Readiness(
			a.healthConfig.checks,
			health.WithLogger(a.logger),
		))
	}

	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// serve adapts a fully-composed HandlerFunc to http.HandlerFunc,
// creating the single per-request Context.
func (a *App) serve(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError renders errors that escaped the middleware pipeline.
func (a *App) handleError(c Context, err error) {
	if c.Written() && !c.ResponseWriter().Capturing() {
		return
	}
	if err := a.errorHandler(c, err); err != nil {
		a.logger.ErrorContext(c.Context(), "error handler failed", slog.Any("error", err))
	}
}

// defaultErrorHandler renders any error as a response envelope.
func defaultErrorHandler(c Context, err error) error {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		httpErr = ErrInternal("Internal server error", WithError(err))
	}
	if httpErr.Status >= http.StatusInternalServerError {
		c.LogError("request failed",
			slog.Int("status", httpErr.Status),
			slog.Any("error", err),
		)
	}

	env := httpErr.Envelope()
	rw := c.ResponseWriter()
	if rw.Capturing() {
		return writeReleased(rw, env)
	}
	return respond.JSON(c.Response(), env)
}

// writeReleased serializes the envelope and releases a capturing writer
// with it, so error responses produced mid-pipeline replace whatever the
// handler may have buffered.
func writeReleased(w *ResponseWriter, env *respond.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return w.Release(env.StatusCode, body)
}

// healthConfig holds health endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness probe.
//
// Example:
//
//	apigate.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
