package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/middlewares"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates an ID when absent", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var got string
		err := middlewares.RequestID()(func(c internal.Context) error {
			got = middlewares.GetRequestID(c)
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		require.NotEmpty(t, got)
		_, parseErr := uuid.Parse(got)
		assert.NoError(t, parseErr)
		assert.Equal(t, got, c.ResponseWriter().Header().Get("X-Request-ID"))
	})

	t.Run("preserves upstream ID", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("X-Request-ID", "upstream-123")
		c, _ := newTestContext(r)

		var got string
		err := middlewares.RequestID()(func(c internal.Context) error {
			got = middlewares.GetRequestID(c)
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		assert.Equal(t, "upstream-123", got)
		assert.Equal(t, "upstream-123", c.ResponseWriter().Header().Get("X-Request-ID"))
	})

	t.Run("falls back to correlation header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("X-Correlation-ID", "corr-9")
		c, _ := newTestContext(r)

		var got string
		err := middlewares.RequestID()(func(c internal.Context) error {
			got = middlewares.GetRequestID(c)
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		assert.Equal(t, "corr-9", got)
	})

	t.Run("custom generator", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string {
			return "fixed-id"
		}))

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		require.NoError(t, mw(okHandler(nil))(c))
		assert.Equal(t, "fixed-id", c.ResponseWriter().Header().Get("X-Request-ID"))
	})
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("converts panic to error", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		err := middlewares.Recover()(func(c internal.Context) error {
			panic("boom")
		})(c)

		require.Error(t, err)
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("normal errors pass through", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		want := internal.ErrForbidden("nope")
		err := middlewares.Recover()(func(c internal.Context) error {
			return want
		})(c)

		assert.ErrorIs(t, err, want)
		assert.False(t, middlewares.IsPanicError(err))
	})
}
