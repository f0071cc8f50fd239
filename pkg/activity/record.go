package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one durable activity-log row.
type Record struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id"`
	Action       string         `json:"action"`
	Description  string         `json:"description,omitempty"`
	URL          string         `json:"url"`
	Method       string         `json:"method"`
	IP           string         `json:"ip"`
	UserAgent    string         `json:"user_agent"`
	Payload      map[string]any `json:"payload,omitempty"`
	ResponseCode int            `json:"response_code"`
	DurationMS   int64          `json:"duration_ms"`
	APIVersion   string         `json:"api_version,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewRecord returns a record with a fresh ID and creation time.
func NewRecord() *Record {
	return &Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder persists activity records. Implementations must be safe for
// concurrent use; callers treat errors as non-fatal.
type Recorder interface {
	Record(ctx context.Context, rec *Record) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec *Record) error

func (f RecorderFunc) Record(ctx context.Context, rec *Record) error {
	return f(ctx, rec)
}
