package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertQuery = `
INSERT INTO activity_logs (
	id, user_id, action, description, url, method, ip, user_agent,
	payload, response_code, duration_ms, api_version, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// PostgresRecorder persists records into the activity_logs table.
// The schema ships with the pkg/db migrations.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a recorder on the given connection pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

func (p *PostgresRecorder) Record(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, insertQuery,
		rec.ID, rec.UserID, rec.Action, rec.Description, rec.URL, rec.Method,
		rec.IP, rec.UserAgent, payload, rec.ResponseCode, rec.DurationMS,
		rec.APIVersion, metadata, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

var _ Recorder = (*PostgresRecorder)(nil)
