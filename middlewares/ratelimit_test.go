package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/middlewares"
	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/identity"
	"github.com/dmitrymomot/apigate/pkg/ratelimit"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// failingCounter simulates an unreachable counter backend.
type failingCounter struct{}

func (failingCounter) Increment(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, errors.New("backend down")
}

func (failingCounter) Peek(_ context.Context, _ string) (int64, time.Duration, error) {
	return 0, 0, errors.New("backend down")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("guest exhausts auth quota", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(flagstore.NewMemoryCounter())
		mw := middlewares.RateLimit(limiter, middlewares.WithClass(ratelimit.ClassAuth))

		// Guests get 5 attempts on the auth class.
		for i := range 5 {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = "203.0.113.7:1234"
			c, _ := newTestContext(r)

			var called bool
			err := mw(okHandler(&called))(c)

			require.NoError(t, err)
			assert.True(t, called, "attempt %d should pass", i+1)
			assert.Equal(t, "5", c.ResponseWriter().Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, strconv.Itoa(4-i), c.ResponseWriter().Header().Get("X-RateLimit-Remaining"))
			assert.NotEmpty(t, c.ResponseWriter().Header().Get("X-RateLimit-Reset"))
		}

		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "203.0.113.7:1234"
		c, _ := newTestContext(r)

		var called bool
		err := mw(okHandler(&called))(c)

		require.Error(t, err)
		assert.False(t, called)

		httpErr := internal.AsHTTPError(err)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
		assert.Equal(t, respond.TypeRateLimitExceeded, httpErr.ErrorCode())

		env := httpErr.Envelope()
		require.NotNil(t, env.Error)
		assert.Positive(t, env.Error.RetryAfter)
		assert.Equal(t, 5, env.Error.MaxAttempts)
		assert.Equal(t, 15, env.Error.DecayMinutes)

		h := c.ResponseWriter().Header()
		assert.Equal(t, "5", h.Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", h.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, h.Get("X-RateLimit-Reset"))
		assert.NotEmpty(t, h.Get("Retry-After"))
	})

	t.Run("denied requests do not consume quota", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(flagstore.NewMemoryCounter())
		mw := middlewares.RateLimit(limiter, middlewares.WithClass(ratelimit.ClassAuth))

		run := func() (*testContext, error) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = "198.51.100.9:4000"
			c, _ := newTestContext(r)
			return c, mw(okHandler(nil))(c)
		}

		for range 5 {
			_, err := run()
			require.NoError(t, err)
		}

		// Repeated denials keep reporting the same exhausted state.
		for range 3 {
			c, err := run()
			require.Error(t, err)
			assert.Equal(t, "0", c.ResponseWriter().Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("identities count separately from IPs", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(flagstore.NewMemoryCounter())
		mw := middlewares.RateLimit(limiter, middlewares.WithClass(ratelimit.ClassAuth))

		// Anonymous caller burns its quota.
		for range 5 {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = "192.0.2.1:1000"
			c, _ := newTestContext(r)
			require.NoError(t, mw(okHandler(nil))(c))
		}

		// Same IP, authenticated admin: fresh counter under the user key
		// and the admin quota of 10.
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:1000"
		c, _ := newTestContext(r)
		withIdentity(c, &identity.Identity{ID: "u1", Roles: []string{"admin"}})

		var called bool
		err := mw(okHandler(&called))(c)

		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "10", c.ResponseWriter().Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", c.ResponseWriter().Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("class derived from path", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(flagstore.NewMemoryCounter())
		mw := middlewares.RateLimit(limiter)

		r := httptest.NewRequest(http.MethodGet, "/api/search?q=golang", nil)
		r.RemoteAddr = "192.0.2.50:1000"
		c, _ := newTestContext(r)

		require.NoError(t, mw(okHandler(nil))(c))
		// Guests get 50 on the search class.
		assert.Equal(t, "50", c.ResponseWriter().Header().Get("X-RateLimit-Limit"))
	})

	t.Run("counter failure lets the request through", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(failingCounter{})
		mw := middlewares.RateLimit(limiter)

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var called bool
		err := mw(okHandler(&called))(c)

		require.NoError(t, err)
		assert.True(t, called)
		assert.Empty(t, c.ResponseWriter().Header().Get("X-RateLimit-Limit"))
	})
}
