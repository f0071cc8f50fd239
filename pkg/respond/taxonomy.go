package respond

import "net/http"

// ErrorType is a closed enumeration of error categories exposed to clients.
// Every error response carries exactly one of these in error.type.
type ErrorType string

const (
	TypeValidationError       ErrorType = "VALIDATION_ERROR"
	TypeAuthenticationError   ErrorType = "AUTHENTICATION_ERROR"
	TypeAuthorizationError    ErrorType = "AUTHORIZATION_ERROR"
	TypeResourceNotFound      ErrorType = "RESOURCE_NOT_FOUND"
	TypeEndpointNotFound      ErrorType = "ENDPOINT_NOT_FOUND"
	TypeUnsupportedAPIVersion ErrorType = "UNSUPPORTED_API_VERSION"
	TypeRateLimitExceeded     ErrorType = "RATE_LIMIT_EXCEEDED"
	TypeMaintenanceMode       ErrorType = "MAINTENANCE_MODE"
	TypeInternalError         ErrorType = "INTERNAL_ERROR"
)

// statusByType maps each error type to its HTTP status code.
var statusByType = map[ErrorType]int{
	TypeValidationError:       http.StatusUnprocessableEntity,
	TypeAuthenticationError:   http.StatusUnauthorized,
	TypeAuthorizationError:    http.StatusForbidden,
	TypeResourceNotFound:      http.StatusNotFound,
	TypeEndpointNotFound:      http.StatusNotFound,
	TypeUnsupportedAPIVersion: http.StatusBadRequest,
	TypeRateLimitExceeded:     http.StatusTooManyRequests,
	TypeMaintenanceMode:       http.StatusServiceUnavailable,
	TypeInternalError:         http.StatusInternalServerError,
}

// Status returns the HTTP status code for the error type.
// Unknown types map to 500.
func (t ErrorType) Status() int {
	if code, ok := statusByType[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// TypeForStatus returns the error type used when a response with the given
// status code is enveloped without an explicit type. Within this pipeline
// 400 is only produced by the version gate, so it maps to
// UNSUPPORTED_API_VERSION; anything unrecognized maps to INTERNAL_ERROR.
func TypeForStatus(code int) ErrorType {
	switch code {
	case http.StatusBadRequest:
		return TypeUnsupportedAPIVersion
	case http.StatusUnauthorized:
		return TypeAuthenticationError
	case http.StatusForbidden:
		return TypeAuthorizationError
	case http.StatusNotFound:
		return TypeResourceNotFound
	case http.StatusUnprocessableEntity:
		return TypeValidationError
	case http.StatusTooManyRequests:
		return TypeRateLimitExceeded
	case http.StatusServiceUnavailable:
		return TypeMaintenanceMode
	default:
		return TypeInternalError
	}
}

// messageByStatus holds the default human-readable message per status code.
var messageByStatus = map[int]string{
	http.StatusOK:                  "Success",
	http.StatusCreated:             "Created successfully",
	http.StatusNoContent:           "No content",
	http.StatusBadRequest:          "Bad request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not found",
	http.StatusUnprocessableEntity: "Validation failed",
	http.StatusTooManyRequests:     "Too many requests",
	http.StatusInternalServerError: "Internal server error",
	http.StatusServiceUnavailable:  "Service unavailable",
}

// MessageForStatus returns the default message for a status code.
func MessageForStatus(code int) string {
	if msg, ok := messageByStatus[code]; ok {
		return msg
	}
	return "Unknown status"
}
