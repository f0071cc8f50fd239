package flagstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	expiresAt time.Time // zero value = never expires
	value     V
}

func (e *memoryEntry[V]) isExpired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}

// Memory is an in-process store with TTL-based expiration. It holds a small,
// bounded set of flags (maintenance state, feature toggles), so there is no
// eviction policy beyond expiry; a background janitor removes stale entries.
//
// Suitable for single-process deployments and tests. Multi-worker
// deployments should use the Redis backend so all workers observe the same
// flags.
type Memory[V any] struct {
	items  map[string]memoryEntry[V]
	opts   *memoryOptions
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewMemory creates a new in-memory store.
//
// Example:
//
//	s := flagstore.NewMemory[maintenance.State](
//	    flagstore.WithDefaultTTL(time.Hour),
//	    flagstore.WithCleanupInterval(30 * time.Second),
//	)
//	defer s.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		items: make(map[string]memoryEntry[V]),
		opts:  o,
		done:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist or has expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || e.isExpired() {
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores a value with the given TTL.
// TTL semantics: positive = expires after duration, zero = use default TTL,
// negative = never expires.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	// ttl < 0: expiresAt stays zero (never expires)

	m.items[key] = memoryEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes a key from the store.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.items, key)
	return nil
}

// Has checks whether a key exists and has not expired.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	return ok && !e.isExpired(), nil
}

// Close stops the janitor goroutine and marks the store as closed.
// Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory[V]) janitor() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory[V]) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.items {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.items, key)
		}
	}
}

var _ Store[any] = (*Memory[any])(nil)
