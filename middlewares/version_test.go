package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/middlewares"
	"github.com/dmitrymomot/apigate/pkg/apiversion"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

func TestVersionMiddleware(t *testing.T) {
	t.Parallel()

	resolver := apiversion.New([]string{"v1", "v2"}, "v1")

	t.Run("supported version passes with headers", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("X-API-Version", "v2")
		c, _ := newTestContext(r)

		var called bool
		var seen string
		err := middlewares.Version(resolver)(func(c internal.Context) error {
			called = true
			seen = c.Version()
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "v2", seen)
		assert.Equal(t, "v2", c.ResponseWriter().Header().Get("X-API-Version"))
		assert.Equal(t, "v1, v2", c.ResponseWriter().Header().Get("X-Supported-Versions"))
	})

	t.Run("default version when nothing requested", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var called bool
		err := middlewares.Version(resolver)(okHandler(&called))(c)

		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "v1", c.ResponseWriter().Header().Get("X-API-Version"))
	})

	t.Run("unsupported version rejected with details", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		r.Header.Set("X-API-Version", "v9")
		c, _ := newTestContext(r)

		var called bool
		err := middlewares.Version(resolver)(okHandler(&called))(c)

		require.Error(t, err)
		assert.False(t, called)

		httpErr := internal.AsHTTPError(err)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, respond.TypeUnsupportedAPIVersion, httpErr.ErrorCode())

		env := httpErr.Envelope()
		require.NotNil(t, env.Error)
		assert.Equal(t, "v9", env.Error.RequestedVersion)
		assert.Equal(t, []string{"v1", "v2"}, env.Error.SupportedVersions)
		assert.Equal(t, "v1", env.Error.DefaultVersion)
		// The requested token still appears in the version header so
		// clients can see what the gate resolved.
		assert.Equal(t, "v9", c.ResponseWriter().Header().Get("X-API-Version"))
	})

	t.Run("deprecated version gets sunset headers", func(t *testing.T) {
		t.Parallel()

		sunset := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
		dep := apiversion.New([]string{"v1", "v2"}, "v2",
			apiversion.WithDeprecated("v1", apiversion.Deprecation{
				SunsetAt: sunset,
				DocsURL:  "https://docs.example.com/migrate-v2",
			}),
		)

		r := httptest.NewRequest(http.MethodGet, "/v1/posts", nil)
		c, _ := newTestContext(r)

		var called bool
		err := middlewares.Version(dep)(okHandler(&called))(c)

		require.NoError(t, err)
		assert.True(t, called)
		h := c.ResponseWriter().Header()
		assert.Equal(t, sunset.Format(http.TimeFormat), h.Get("Sunset"))
		assert.Equal(t, "true", h.Get("Deprecation"))
		assert.Equal(t, `<https://docs.example.com/migrate-v2>; rel="deprecation"`, h.Get("Link"))
	})
}
