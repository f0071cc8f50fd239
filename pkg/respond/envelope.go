package respond

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the outer shape of every API response.
type Envelope struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Timestamp   string              `json:"timestamp"`
	StatusCode  int                 `json:"status_code"`
	Data        any                 `json:"data,omitempty"`
	Error       *ErrorInfo          `json:"error,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
	Maintenance any                 `json:"maintenance,omitempty"`
}

// ErrorInfo describes a failed request. Code and Type are always present;
// the remaining fields are populated by the stage that produced the error.
type ErrorInfo struct {
	Code int       `json:"code"`
	Type ErrorType `json:"type"`

	// Version gate context.
	RequestedVersion  string   `json:"requested_version,omitempty"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	DefaultVersion    string   `json:"default_version,omitempty"`

	// Rate limiter context.
	RetryAfter   int `json:"retry_after,omitempty"`
	MaxAttempts  int `json:"max_attempts,omitempty"`
	DecayMinutes int `json:"decay_minutes,omitempty"`

	// Maintenance context.
	EstimatedDuration string `json:"estimated_duration,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
}

// Timestamp format for all envelopes.
const timeFormat = time.RFC3339

// Now returns the current UTC time formatted for envelope timestamps.
func Now() string {
	return time.Now().UTC().Format(timeFormat)
}

// Success builds a success envelope with the default message for the status.
func Success(code int, data any) *Envelope {
	return &Envelope{
		Success:    true,
		Message:    MessageForStatus(code),
		Timestamp:  Now(),
		StatusCode: code,
		Data:       data,
	}
}

// Error builds an error envelope. An empty message falls back to the
// status default; a zero code falls back to the type's status.
func Error(t ErrorType, code int, message string) *Envelope {
	if code == 0 {
		code = t.Status()
	}
	if message == "" {
		message = MessageForStatus(code)
	}
	return &Envelope{
		Success:    false,
		Message:    message,
		Timestamp:  Now(),
		StatusCode: code,
		Error:      &ErrorInfo{Code: code, Type: t},
	}
}

// Validation builds a 422 envelope carrying per-field messages.
func Validation(message string, fields map[string][]string) *Envelope {
	env := Error(TypeValidationError, http.StatusUnprocessableEntity, message)
	env.Errors = fields
	return env
}

// JSON writes the envelope to w with its status code.
func JSON(w http.ResponseWriter, env *Envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.StatusCode)
	return json.NewEncoder(w).Encode(env)
}
