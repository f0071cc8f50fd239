package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/middlewares"
	"github.com/dmitrymomot/apigate/pkg/identity"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("stores resolved identity", func(t *testing.T) {
		t.Parallel()

		resolver := identity.ResolverFunc(func(r *http.Request) (*identity.Identity, error) {
			return &identity.Identity{ID: "u1", Roles: []string{"editor"}}, nil
		})

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var seen *identity.Identity
		err := middlewares.Authenticate(resolver)(func(c internal.Context) error {
			seen = c.Identity()
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.ID)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		t.Parallel()

		resolver := identity.ResolverFunc(func(r *http.Request) (*identity.Identity, error) {
			return nil, nil
		})

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		err := middlewares.Authenticate(resolver)(func(c internal.Context) error {
			assert.Nil(t, c.Identity())
			return c.NoContent(http.StatusOK)
		})(c)

		require.NoError(t, err)
	})

	t.Run("resolver failure rejects with 401", func(t *testing.T) {
		t.Parallel()

		resolver := identity.ResolverFunc(func(r *http.Request) (*identity.Identity, error) {
			return nil, errors.New("token expired")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		c, _ := newTestContext(r)

		var called bool
		err := middlewares.Authenticate(resolver)(okHandler(&called))(c)

		require.Error(t, err)
		assert.False(t, called)
		httpErr := internal.AsHTTPError(err)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	})
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	editor := &identity.Identity{ID: "u1", Roles: []string{"editor"}}

	tests := []struct {
		name       string
		id         *identity.Identity
		logic      identity.Logic
		roles      []string
		wantStatus int // 0 means allowed
	}{
		{
			name:       "anonymous gets 401",
			id:         nil,
			logic:      identity.MatchAny,
			roles:      []string{"editor"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing role gets 403",
			id:         editor,
			logic:      identity.MatchAny,
			roles:      []string{"admin", "super_admin"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:  "any-of match passes",
			id:    editor,
			logic: identity.MatchAny,
			roles: []string{"admin", "editor"},
		},
		{
			name:       "all-of requires every role",
			id:         editor,
			logic:      identity.MatchAll,
			roles:      []string{"editor", "admin"},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			c, _ := newTestContext(r)
			if tt.id != nil {
				withIdentity(c, tt.id)
			}

			var called bool
			err := middlewares.RequireRoles(tt.logic, tt.roles...)(okHandler(&called))(c)

			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.True(t, called)
				return
			}
			require.Error(t, err)
			assert.False(t, called)
			httpErr := internal.AsHTTPError(err)
			require.NotNil(t, httpErr)
			assert.Equal(t, tt.wantStatus, httpErr.Status)
		})
	}
}

func TestRequirePermissions(t *testing.T) {
	t.Parallel()

	author := &identity.Identity{
		ID:          "u2",
		Roles:       []string{"author"},
		Permissions: []string{"posts.create", "posts.edit_own"},
	}

	t.Run("anonymous gets 401", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		c, _ := newTestContext(r)

		err := middlewares.RequirePermissions(identity.MatchAll, "posts.create")(okHandler(nil))(c)

		require.Error(t, err)
		httpErr := internal.AsHTTPError(err)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	})

	t.Run("all-of across the permission set", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		c, _ := newTestContext(r)
		withIdentity(c, author)

		var called bool
		err := middlewares.RequirePermissions(identity.MatchAll, "posts.create", "posts.edit_own")(okHandler(&called))(c)

		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("insufficient permissions get 403", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil)
		c, _ := newTestContext(r)
		withIdentity(c, author)

		var called bool
		err := middlewares.RequirePermissions(identity.MatchAll, "posts.delete")(okHandler(&called))(c)

		require.Error(t, err)
		assert.False(t, called)
		httpErr := internal.AsHTTPError(err)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.Status)
	})
}
