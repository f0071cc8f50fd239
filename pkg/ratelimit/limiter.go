// Package ratelimit enforces per-identity request quotas over fixed windows.
//
// Quotas vary by limiter class and by the identity's primary role; counters
// live in the shared flag store so all workers count together. A denied
// request never increments its counter, so being throttled does not extend
// the throttle.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/identity"
)

// Result describes a limiter decision plus the values exposed through
// X-RateLimit-* headers on both the allow and deny paths.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // remaining window, set on deny
	ResetAt    time.Time
	Window     time.Duration
}

// Limiter checks and records request counts against the quota table.
type Limiter struct {
	counter flagstore.Counter
}

// New creates a limiter on the given counter backend.
func New(counter flagstore.Counter) *Limiter {
	return &Limiter{counter: counter}
}

// KeyFor builds the counter identity: "user:{id}:role:{role}" for
// authenticated requests, "ip:{addr}" otherwise.
func KeyFor(id *identity.Identity, ip string) string {
	if id != nil {
		return fmt.Sprintf("user:%s:role:%s", id.ID, id.PrimaryRole())
	}
	return "ip:" + ip
}

// RoleFor returns the quota role for the identity: its primary role when
// authenticated, "guest" otherwise.
func RoleFor(id *identity.Identity) string {
	if id == nil {
		return identity.GuestRole
	}
	return id.PrimaryRole()
}

// Allow checks the counter for (class, key) against the role's quota and,
// when under the limit, increments it. The deny path performs no write, so
// rejected requests do not consume quota.
func (l *Limiter) Allow(ctx context.Context, class, role, key string) (Result, error) {
	limit := MaxAttempts(class, role)
	window := Window(class)
	counterKey := class + ":" + key

	count, remaining, err := l.counter.Peek(ctx, counterKey)
	if err != nil {
		return Result{}, fmt.Errorf("peek rate counter: %w", err)
	}

	if count >= int64(limit) {
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: remaining,
			ResetAt:    time.Now().Add(remaining),
			Window:     window,
		}, nil
	}

	count, err = l.counter.Increment(ctx, counterKey, window)
	if err != nil {
		return Result{}, fmt.Errorf("increment rate counter: %w", err)
	}

	left := limit - int(count)
	if left < 0 {
		left = 0
	}

	if remaining == 0 {
		// Counter was just created; the full window applies.
		remaining = window
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: left,
		ResetAt:   time.Now().Add(remaining),
		Window:    window,
	}, nil
}

// RetryAfterSeconds returns the deny wait rounded up to whole seconds,
// never less than one.
func (r Result) RetryAfterSeconds() int {
	secs := int(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
