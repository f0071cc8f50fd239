// Package activity records API request activity for auditing.
//
// A Record captures who did what: actor identity, HTTP method and path,
// response status, duration, and a redacted copy of the request payload.
// Recording is fire-and-forget: recorders are invoked asynchronously and
// failures never affect the request that produced the record.
//
// Sensitive payload fields (passwords, tokens, card numbers and similar)
// are masked by Redact before a record is persisted:
//
//	payload := activity.Redact(map[string]any{
//		"name":     "Bob",
//		"password": "secret123",
//	})
//	// payload["password"] == activity.MaskToken
//
// Three Recorder implementations are provided: PostgresRecorder persists
// to an activity_logs table, LogRecorder writes structured log entries,
// and MemoryRecorder keeps records in memory for tests.
package activity
