package activity

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// MemoryRecorder keeps records in memory. Intended for tests and local
// development.
type MemoryRecorder struct {
	records []*Record
	mu      sync.Mutex
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a snapshot of everything recorded so far.
func (m *MemoryRecorder) Records() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// LogRecorder writes records to the structured log. Used when no durable
// store is configured.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder on the given logger.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (l *LogRecorder) Record(ctx context.Context, rec *Record) error {
	l.logger.InfoContext(ctx, "activity",
		slog.String("id", rec.ID),
		slog.String("action", rec.Action),
		slog.String("method", rec.Method),
		slog.String("url", rec.URL),
		slog.String("ip", rec.IP),
		slog.Int("response_code", rec.ResponseCode),
		slog.Int64("duration_ms", rec.DurationMS),
		slog.String("api_version", rec.APIVersion),
	)
	return nil
}

var (
	_ Recorder = (*MemoryRecorder)(nil)
	_ Recorder = (*LogRecorder)(nil)
)
