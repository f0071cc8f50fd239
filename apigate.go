package apigate

import (
	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/logger"
)

// Type aliases - public API
type (
	// App orchestrates the gateway lifecycle: routing, the middleware
	// pipeline, and graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// HTTPError is an error carrying an HTTP status and response envelope.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ResponseWriter wraps http.ResponseWriter with status capture and
	// response buffering for the formatting stage.
	ResponseWriter = internal.ResponseWriter

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Constructor functions - public API
var (
	// New creates a new application with the given options.
	New = internal.New

	// Application options.
	WithMiddleware              = internal.WithMiddleware
	WithHandlers                = internal.WithHandlers
	WithErrorHandler            = internal.WithErrorHandler
	WithNotFoundHandler         = internal.WithNotFoundHandler
	WithMethodNotAllowedHandler = internal.WithMethodNotAllowedHandler
	WithHealthChecks            = internal.WithHealthChecks
	WithLogger                  = internal.WithLogger
	WithCustomLogger            = internal.WithCustomLogger

	// Health check options.
	WithLivenessPath   = internal.WithLivenessPath
	WithReadinessPath  = internal.WithReadinessPath
	WithReadinessCheck = internal.WithReadinessCheck

	// Run options.
	Logger          = internal.Logger
	ShutdownTimeout = internal.ShutdownTimeout
	StartupHook     = internal.StartupHook
	ShutdownHook    = internal.ShutdownHook
	BaseContext     = internal.BaseContext

	// Error constructors.
	NewHTTPError          = internal.NewHTTPError
	ErrBadRequest         = internal.ErrBadRequest
	ErrUnauthorized       = internal.ErrUnauthorized
	ErrForbidden          = internal.ErrForbidden
	ErrNotFound           = internal.ErrNotFound
	ErrEndpointNotFound   = internal.ErrEndpointNotFound
	ErrUnprocessable      = internal.ErrUnprocessable
	ErrTooManyRequests    = internal.ErrTooManyRequests
	ErrUnsupportedVersion = internal.ErrUnsupportedVersion
	ErrInternal           = internal.ErrInternal
	ErrServiceUnavailable = internal.ErrServiceUnavailable
	AsHTTPError           = internal.AsHTTPError

	// Error options.
	WithError     = internal.WithError
	WithCode      = internal.WithCode
	WithFields    = internal.WithFields
	WithEnvelope  = internal.WithEnvelope
	WithRequestID = internal.WithRequestID
)
