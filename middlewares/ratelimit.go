package middlewares

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/ratelimit"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// RateLimitConfig controls limiter class selection.
type RateLimitConfig struct {
	// Class pins the limiter class for every request passing through this
	// middleware instance. When empty the class is derived from the path.
	Class string

	// ClassPrefixes maps URL path prefixes to limiter classes, consulted
	// when Class is empty. Longest prefix wins.
	ClassPrefixes map[string]string
}

// RateLimitOption configures the rate limit middleware.
type RateLimitOption func(*RateLimitConfig)

// WithClass pins all requests to one limiter class, e.g. ratelimit.ClassAuth
// on a login group.
func WithClass(class string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.Class = class
	}
}

// WithClassPrefixes replaces the default path-prefix to class mapping.
func WithClassPrefixes(prefixes map[string]string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		cfg.ClassPrefixes = prefixes
	}
}

// defaultClassPrefixes routes the common endpoint families to their quota
// buckets when no explicit class is pinned.
var defaultClassPrefixes = map[string]string{
	"/api/auth":   ratelimit.ClassAuth,
	"/api/login":  ratelimit.ClassAuth,
	"/api/upload": ratelimit.ClassUpload,
	"/api/media":  ratelimit.ClassUpload,
	"/api/search": ratelimit.ClassSearch,
	"/api":        ratelimit.ClassAPI,
}

// RateLimit enforces per-identity quotas through the given limiter.
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset are set
// on allowed and denied responses alike; denials additionally carry
// Retry-After and a 429 envelope, and do not consume quota.
func RateLimit(limiter *ratelimit.Limiter, opts ...RateLimitOption) internal.Middleware {
	cfg := RateLimitConfig{ClassPrefixes: defaultClassPrefixes}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			class := cfg.Class
			if class == "" {
				class = classForPath(c.Request().URL.Path, cfg.ClassPrefixes)
			}

			id := c.Identity()
			role := ratelimit.RoleFor(id)
			key := ratelimit.KeyFor(id, c.ClientIP())

			res, err := limiter.Allow(c, class, role, key)
			if err != nil {
				// A broken counter backend must not take the API down.
				c.LogError("rate limiter unavailable", "error", err, "class", class)
				return next(c)
			}

			c.SetHeader("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.SetHeader("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.SetHeader("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retryAfter := res.RetryAfterSeconds()
				c.SetHeader("Retry-After", strconv.Itoa(retryAfter))
				return internal.ErrTooManyRequests(
					fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
					internal.WithEnvelope(func(env *respond.Envelope) {
						env.Error.RetryAfter = retryAfter
						env.Error.MaxAttempts = res.Limit
						env.Error.DecayMinutes = int(res.Window.Minutes())
					}),
				)
			}

			return next(c)
		}
	}
}

// classForPath returns the class of the longest matching prefix, or the
// general API class when nothing matches.
func classForPath(path string, prefixes map[string]string) string {
	class := ratelimit.ClassAPI
	longest := -1
	for prefix, cls := range prefixes {
		if len(prefix) > longest && strings.HasPrefix(path, prefix) {
			class = cls
			longest = len(prefix)
		}
	}
	return class
}
