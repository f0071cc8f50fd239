package middlewares

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// Format wraps every JSON response leaving the pipeline in the standard
// envelope. Handlers write plain payloads with c.JSON(status, data); the
// middleware buffers the body, wraps it, and releases the envelope with
// an X-Response-Time header.
//
// Errors returned by inner stages are rendered here as error envelopes,
// so gate rejections and panics share the same response shape. Non-JSON
// responses pass through untouched. Bodies that already carry a "success"
// field are treated as handler-built envelopes: existing fields stay as
// written, only missing timestamp and status_code keys are backfilled.
func Format() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			rw := c.ResponseWriter()
			if !rw.Capture() {
				// Something upstream already wrote; nothing to wrap.
				return next(c)
			}

			err := next(c)

			if err != nil {
				setResponseTime(c)
				return releaseError(c, err)
			}
			if !rw.Capturing() {
				// An inner stage released the response itself, setting
				// the timing header before its headers were flushed.
				return nil
			}
			setResponseTime(c)

			status := rw.Status()
			body := rw.Body()

			// 204 must not carry a body; release as-is.
			if status == 204 || len(body) == 0 {
				return rw.Release(status, nil)
			}

			if ct := rw.Header().Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
				return rw.Release(status, body)
			}

			var data any
			if err := json.Unmarshal(body, &data); err != nil {
				// Handler produced invalid JSON; pass through untouched.
				return rw.Release(status, body)
			}
			if obj, ok := data.(map[string]any); ok {
				if _, enveloped := obj["success"]; enveloped {
					return releaseBackfilled(rw, status, obj, body)
				}
			}

			var env *respond.Envelope
			if status >= 400 {
				env = respond.Error(respond.TypeForStatus(status), status, "")
				env.Data = data
			} else {
				env = respond.Success(status, data)
			}
			return releaseEnvelope(rw, env)
		}
	}
}

// releaseError renders an error as an envelope on a capturing writer.
func releaseError(c internal.Context, err error) error {
	httpErr := internal.AsHTTPError(err)
	if httpErr == nil {
		httpErr = internal.ErrInternal("Internal server error", internal.WithError(err))
	}
	if httpErr.Status >= 500 {
		c.LogError("request failed",
			slog.Int("status", httpErr.Status),
			slog.Any("error", err),
		)
	}
	return releaseEnvelope(c.ResponseWriter(), httpErr.Envelope())
}

func releaseEnvelope(rw *internal.ResponseWriter, env *respond.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	return rw.Release(env.StatusCode, body)
}

// releaseBackfilled passes through a body the handler already shaped as an
// envelope. Existing fields are never rewritten; only absent timestamp and
// status_code keys are added before release.
func releaseBackfilled(rw *internal.ResponseWriter, status int, obj map[string]any, body []byte) error {
	_, hasTimestamp := obj["timestamp"]
	_, hasStatus := obj["status_code"]
	if hasTimestamp && hasStatus {
		return rw.Release(status, body)
	}

	if !hasTimestamp {
		obj["timestamp"] = respond.Now()
	}
	if !hasStatus {
		obj["status_code"] = status
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return rw.Release(status, body)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	return rw.Release(status, out)
}

func setResponseTime(c internal.Context) {
	elapsed := time.Since(c.StartedAt())
	c.SetHeader("X-Response-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
}
