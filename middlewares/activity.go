package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"runtime"
	"strings"
	"time"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/activity"
)

// ActivityConfig controls which requests are recorded and how much of the
// request body is captured.
type ActivityConfig struct {
	// ExcludedPrefixes lists URL path prefixes that are never recorded,
	// typically probe and static-asset paths.
	ExcludedPrefixes []string

	// MaxPayloadBytes caps how much of the request body is captured for the
	// record. Bodies beyond the cap are stored without a payload.
	MaxPayloadBytes int64

	// RecordTimeout bounds the background write per record.
	RecordTimeout time.Duration
}

// ActivityOption configures the activity middleware.
type ActivityOption func(*ActivityConfig)

// WithExcludedPrefixes replaces the default excluded path prefixes.
func WithExcludedPrefixes(prefixes ...string) ActivityOption {
	return func(cfg *ActivityConfig) {
		cfg.ExcludedPrefixes = prefixes
	}
}

// WithMaxPayloadBytes sets the request body capture cap.
func WithMaxPayloadBytes(n int64) ActivityOption {
	return func(cfg *ActivityConfig) {
		cfg.MaxPayloadBytes = n
	}
}

// WithRecordTimeout sets the background write timeout per record.
func WithRecordTimeout(d time.Duration) ActivityOption {
	return func(cfg *ActivityConfig) {
		cfg.RecordTimeout = d
	}
}

var defaultExcludedPrefixes = []string{
	"/health",
	"/api/health",
	"/metrics",
	"/favicon.ico",
	"/static",
}

const (
	defaultMaxPayloadBytes = 64 << 10
	defaultRecordTimeout   = 5 * time.Second
)

// Activity writes one audit record per request through the recorder.
// OPTIONS requests and excluded paths are skipped. Recording happens in a
// background goroutine after the response is sent, so a slow or failing
// recorder never delays the caller; write failures are logged and dropped.
//
// JSON request bodies are captured into the record's payload with sensitive
// fields masked before storage.
func Activity(recorder activity.Recorder, opts ...ActivityOption) internal.Middleware {
	cfg := ActivityConfig{
		ExcludedPrefixes: defaultExcludedPrefixes,
		MaxPayloadBytes:  defaultMaxPayloadBytes,
		RecordTimeout:    defaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			if r.Method == "OPTIONS" || hasPrefix(r.URL.Path, cfg.ExcludedPrefixes) {
				return next(c)
			}

			payload := capturePayload(c, cfg.MaxPayloadBytes)

			err := next(c)

			rec := activity.NewRecord()
			rec.Action = r.Method + " " + c.RoutePattern()
			rec.URL = r.URL.String()
			rec.Method = r.Method
			rec.IP = c.ClientIP()
			rec.UserAgent = r.UserAgent()
			rec.Payload = activity.Redact(payload)
			rec.ResponseCode = c.ResponseWriter().Status()
			rec.DurationMS = time.Since(c.StartedAt()).Milliseconds()
			rec.APIVersion = c.Version()

			if id := c.Identity(); id != nil {
				userID := id.ID
				rec.UserID = &userID
			}
			rec.Metadata = captureMetadata(c)

			log := c.Logger()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.RecordTimeout)
				defer cancel()
				if err := recorder.Record(ctx, rec); err != nil {
					log.ErrorContext(ctx, "activity record failed",
						"error", err, "action", rec.Action)
				}
			}()

			return err
		}
	}
}

// captureMetadata collects the request context stored alongside the record:
// the request ID, a whitelisted header subset with Authorization masked, and
// peak process memory in MB.
func captureMetadata(c internal.Context) map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	meta := map[string]any{
		"peak_memory_mb": mem.Sys >> 20,
	}
	if headers := activity.RedactHeaders(c.Request().Header); len(headers) > 0 {
		meta["headers"] = headers
	}
	if reqID := GetRequestID(c); reqID != "" {
		meta["request_id"] = reqID
	}
	return meta
}

// capturePayload reads and restores the request body, returning the decoded
// JSON object or nil when the body is absent, oversized, or not JSON.
func capturePayload(c internal.Context, maxBytes int64) map[string]any {
	r := c.Request()
	if r.Body == nil || r.ContentLength == 0 || r.ContentLength > maxBytes {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || (mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json")) {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
