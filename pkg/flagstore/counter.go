package flagstore

import (
	"context"
	"sync"
	"time"
)

type counterEntry struct {
	expiresAt time.Time
	count     int64
}

// MemoryCounter is an in-process Counter. Increment is atomic under a mutex,
// so concurrent bursts never lose updates.
type MemoryCounter struct {
	counts map[string]counterEntry
	mu     sync.Mutex
}

// NewMemoryCounter creates a new in-memory counter set.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]counterEntry)}
}

// Increment atomically adds one to the counter at key. An absent or expired
// counter restarts at one with a fresh window; an existing counter keeps its
// window end untouched.
func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.counts[key]
	if !ok || now.After(e.expiresAt) {
		c.counts[key] = counterEntry{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}

	e.count++
	c.counts[key] = e
	return e.count, nil
}

// Peek returns the current count and remaining window without modifying the
// counter. Expired counters report zero.
func (c *MemoryCounter) Peek(_ context.Context, key string) (int64, time.Duration, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.counts[key]
	if !ok || now.After(e.expiresAt) {
		delete(c.counts, key)
		return 0, 0, nil
	}

	return e.count, e.expiresAt.Sub(now), nil
}

var _ Counter = (*MemoryCounter)(nil)
