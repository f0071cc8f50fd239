package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/identity"
	"github.com/dmitrymomot/apigate/pkg/ratelimit"
)

func TestQuotaTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class string
		role  string
		want  int
	}{
		{ratelimit.ClassAuth, "super_admin", 10},
		{ratelimit.ClassAuth, "editor", 8},
		{ratelimit.ClassAuth, "user", 5},
		{ratelimit.ClassAuth, "guest", 5},
		{ratelimit.ClassAPI, "super_admin", 1000},
		{ratelimit.ClassAPI, "admin", 500},
		{ratelimit.ClassAPI, "author", 200},
		{ratelimit.ClassAPI, "guest", 60},
		{ratelimit.ClassUpload, "editor", 30},
		{ratelimit.ClassUpload, "user", 10},
		{ratelimit.ClassUpload, "guest", 5},
		{ratelimit.ClassSearch, "admin", 200},
		{ratelimit.ClassSearch, "user", 100},
		{ratelimit.ClassSearch, "guest", 50},
		{"webhooks", "admin", 60},
		{"webhooks", "guest", 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ratelimit.MaxAttempts(tt.class, tt.role),
			"class=%s role=%s", tt.class, tt.role)
	}

	// Unknown roles inherit the guest quota of the class.
	assert.Equal(t, 60, ratelimit.MaxAttempts(ratelimit.ClassAPI, "moderator"))
}

func TestWindowTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Minute, ratelimit.Window(ratelimit.ClassAuth))
	assert.Equal(t, time.Hour, ratelimit.Window(ratelimit.ClassUpload))
	assert.Equal(t, time.Minute, ratelimit.Window(ratelimit.ClassSearch))
	assert.Equal(t, time.Minute, ratelimit.Window(ratelimit.ClassAPI))
	assert.Equal(t, time.Minute, ratelimit.Window("webhooks"))
}

func TestKeyFor(t *testing.T) {
	t.Parallel()

	id := &identity.Identity{ID: "42", Roles: []string{"editor"}}
	assert.Equal(t, "user:42:role:editor", ratelimit.KeyFor(id, "10.0.0.1"))

	noRoles := &identity.Identity{ID: "7"}
	assert.Equal(t, "user:7:role:user", ratelimit.KeyFor(noRoles, "10.0.0.1"))

	assert.Equal(t, "ip:10.0.0.1", ratelimit.KeyFor(nil, "10.0.0.1"))
}

func TestRoleFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "guest", ratelimit.RoleFor(nil))
	assert.Equal(t, "admin", ratelimit.RoleFor(&identity.Identity{Roles: []string{"admin"}}))
	assert.Equal(t, "user", ratelimit.RoleFor(&identity.Identity{}))
}

func TestAllow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("denies after quota is exhausted", func(t *testing.T) {
		t.Parallel()

		l := ratelimit.New(flagstore.NewMemoryCounter())

		// auth/guest quota is 5 per 15 minutes.
		for i := range 5 {
			res, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.1")
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d", i+1)
			assert.Equal(t, 5, res.Limit)
			assert.Equal(t, 4-i, res.Remaining)
		}

		res, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
		assert.Greater(t, res.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, res.RetryAfter, 15*time.Minute)
		assert.GreaterOrEqual(t, res.RetryAfterSeconds(), 1)
	})

	t.Run("deny path does not consume quota", func(t *testing.T) {
		t.Parallel()

		counter := flagstore.NewMemoryCounter()
		l := ratelimit.New(counter)

		for range 5 {
			_, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.2")
			require.NoError(t, err)
		}
		for range 3 {
			res, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.2")
			require.NoError(t, err)
			assert.False(t, res.Allowed)
		}

		count, _, err := counter.Peek(ctx, "auth:ip:10.0.0.2")
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("identities are counted separately", func(t *testing.T) {
		t.Parallel()

		l := ratelimit.New(flagstore.NewMemoryCounter())

		for range 5 {
			_, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.3")
			require.NoError(t, err)
		}

		res, err := l.Allow(ctx, ratelimit.ClassAuth, "guest", "ip:10.0.0.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("counter restarts after the window", func(t *testing.T) {
		t.Parallel()

		counter := flagstore.NewMemoryCounter()
		l := ratelimit.New(counter)

		// Exhaust the window, then let it expire by seeding a short one.
		_, err := counter.Increment(ctx, "search:ip:10.0.0.5", 20*time.Millisecond)
		require.NoError(t, err)
		for range 49 {
			_, err := counter.Increment(ctx, "search:ip:10.0.0.5", time.Minute)
			require.NoError(t, err)
		}

		res, err := l.Allow(ctx, ratelimit.ClassSearch, "guest", "ip:10.0.0.5")
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		time.Sleep(30 * time.Millisecond)

		res, err = l.Allow(ctx, ratelimit.ClassSearch, "guest", "ip:10.0.0.5")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 49, res.Remaining)
	})
}
