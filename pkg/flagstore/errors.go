package flagstore

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("flagstore: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("flagstore: closed")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("flagstore: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("flagstore: failed to unmarshal value")
)
