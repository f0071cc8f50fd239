package flagstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is a typed key/value store with TTL support.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the store's configured default TTL
//   - Negative: entry never expires
type Store[V any] interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key from the store.
	Delete(ctx context.Context, key string) error

	// Has checks whether a key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases resources (stops background goroutines, etc.).
	Close() error
}

// Counter is an atomic counter with window expiry.
type Counter interface {
	// Increment atomically adds one to the counter at key, creating it
	// with the given window TTL if absent, and returns the new count.
	// The TTL is set only on creation; subsequent increments within the
	// window do not extend it.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// Peek returns the current count and the remaining window without
	// modifying the counter. A missing or expired key reports zero count.
	Peek(ctx context.Context, key string) (int64, time.Duration, error)
}

// Marshaler serializes and deserializes values for backends that store
// byte representations (e.g., Redis).
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var sfGroup singleflight.Group

type getOrSetResult[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet retrieves a value from the store, or calls fn to compute it on a
// miss. Concurrent misses for the same key are collapsed into a single call.
func GetOrSet[V any](ctx context.Context, s Store[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := s.Get(ctx, key); err == nil {
		return v, nil
	}

	// Scope the flight key to the store instance so distinct stores using
	// the same key never share a result.
	flightKey := fmt.Sprintf("%p:%s", s, key)
	v, err, _ := sfGroup.Do(flightKey, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return getOrSetResult[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := v.(getOrSetResult[V])

	// Best-effort write back.
	_ = s.Set(ctx, key, r.val, r.ttl)

	return r.val, nil
}
