package internal

import (
	"net/http"

	"github.com/dmitrymomot/apigate/pkg/respond"
)

// HTTPError carries everything the error handler needs to render an
// error envelope: status, machine-readable code, user-facing message,
// validation fields, and domain-specific metadata.
type HTTPError struct {
	// Err is the underlying error, kept for logging only.
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the machine-readable error code; derived from Status when
	// not set explicitly.
	Code respond.ErrorType

	// Fields holds per-field validation messages for 422 responses.
	Fields map[string][]string

	// RequestID is the request tracking ID.
	RequestID string

	// Status is the HTTP status code.
	Status int

	// decorators run on the envelope rendered for this error, letting
	// the producing stage attach typed context such as rate-limit or
	// maintenance details.
	decorators []func(*respond.Envelope)
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Status
}

// ErrorCode returns the explicit code or the default for the status.
func (e *HTTPError) ErrorCode() respond.ErrorType {
	if e.Code != "" {
		return e.Code
	}
	return respond.TypeForStatus(e.Status)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(status int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Status: status, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func WithCode(code respond.ErrorType) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Code = code
	}
}

func WithFields(fields map[string][]string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Fields = fields
	}
}

// WithEnvelope registers a decorator applied to the rendered envelope.
func WithEnvelope(fn func(*respond.Envelope)) HTTPErrorOption {
	return func(e *HTTPError) {
		e.decorators = append(e.decorators, fn)
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

// Convenience constructors for the common error responses.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

// ErrEndpointNotFound marks a route miss, as opposed to a missing
// resource behind an existing route.
func ErrEndpointNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	opts = append([]HTTPErrorOption{WithCode(respond.TypeEndpointNotFound)}, opts...)
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrTooManyRequests(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, message, opts...)
}

func ErrUnsupportedVersion(message string, opts ...HTTPErrorOption) *HTTPError {
	opts = append([]HTTPErrorOption{WithCode(respond.TypeUnsupportedAPIVersion)}, opts...)
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// Envelope renders the error into a response envelope, applying field
// errors and registered decorators.
func (e *HTTPError) Envelope() *respond.Envelope {
	env := respond.Error(e.ErrorCode(), e.Status, e.Message)
	if len(e.Fields) > 0 {
		env.Errors = e.Fields
	}
	for _, fn := range e.decorators {
		fn(env)
	}
	return env
}

// AsHTTPError extracts an HTTPError from err, or nil.
func AsHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr
	}
	return nil
}
