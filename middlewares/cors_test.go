package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/middlewares"
)

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("non-CORS request untouched", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var called bool
		require.NoError(t, middlewares.CORS()(okHandler(&called))(c))

		assert.True(t, called)
		assert.Empty(t, c.ResponseWriter().Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Origin", "https://app.example.com")
		c, _ := newTestContext(r)

		require.NoError(t, middlewares.CORS()(okHandler(nil))(c))

		h := c.ResponseWriter().Header()
		assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, h.Get("Access-Control-Expose-Headers"), "X-RateLimit-Limit")
	})

	t.Run("specific origins echo the origin", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.CORS(middlewares.WithAllowOrigins("https://app.example.com"))

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Origin", "https://app.example.com")
		c, _ := newTestContext(r)

		require.NoError(t, mw(okHandler(nil))(c))
		assert.Equal(t, "https://app.example.com", c.ResponseWriter().Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.CORS(middlewares.WithAllowOrigins("https://app.example.com"))

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		c, _ := newTestContext(r)

		var called bool
		require.NoError(t, mw(okHandler(&called))(c))

		assert.True(t, called)
		assert.Empty(t, c.ResponseWriter().Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answered directly", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
		r.Header.Set("Origin", "https://app.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		c, rec := newTestContext(r)

		var called bool
		require.NoError(t, middlewares.CORS()(okHandler(&called))(c))

		assert.False(t, called, "preflight must not reach the handler")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		h := rec.Header()
		assert.Contains(t, h.Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.NotEmpty(t, h.Get("Access-Control-Allow-Headers"))
		assert.NotEmpty(t, h.Get("Access-Control-Max-Age"))
	})

	t.Run("credentials echo origin instead of wildcard", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.CORS(middlewares.WithAllowCredentials())

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Origin", "https://app.example.com")
		c, _ := newTestContext(r)

		require.NoError(t, mw(okHandler(nil))(c))

		h := c.ResponseWriter().Header()
		assert.Equal(t, "https://app.example.com", h.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("dynamic origin validator", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.CORS(middlewares.WithAllowOriginFunc(func(origin string) bool {
			return origin == "https://trusted.example.com"
		}))

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("Origin", "https://trusted.example.com")
		c, _ := newTestContext(r)

		require.NoError(t, mw(okHandler(nil))(c))
		assert.Equal(t, "https://trusted.example.com", c.ResponseWriter().Header().Get("Access-Control-Allow-Origin"))
	})
}
