package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/apigate/pkg/identity"
)

func TestHasPermissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		have     []string
		logic    identity.Logic
		required []string
		want     bool
	}{
		{"AND missing one", []string{"a"}, identity.MatchAll, []string{"a", "b"}, false},
		{"AND superset", []string{"a", "b", "c"}, identity.MatchAll, []string{"a", "b"}, true},
		{"OR no overlap", []string{"c"}, identity.MatchAny, []string{"a", "b"}, false},
		{"OR one match", []string{"a"}, identity.MatchAny, []string{"a", "b"}, true},
		{"empty required always satisfied", nil, identity.MatchAll, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id := &identity.Identity{ID: "u1", Permissions: tt.have}
			assert.Equal(t, tt.want, id.HasPermissions(tt.logic, tt.required...))
		})
	}
}

func TestHasRoles(t *testing.T) {
	t.Parallel()

	id := &identity.Identity{ID: "u1", Roles: []string{"editor", "author"}}

	assert.True(t, id.HasRoles(identity.MatchAny, "admin", "editor"))
	assert.False(t, id.HasRoles(identity.MatchAll, "admin", "editor"))
	assert.True(t, id.HasRoles(identity.MatchAll, "editor", "author"))
}

func TestPrimaryRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "editor", (&identity.Identity{Roles: []string{"editor", "author"}}).PrimaryRole())
	assert.Equal(t, "user", (&identity.Identity{}).PrimaryRole())
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Nil(t, identity.FromContext(context.Background()))

	id := &identity.Identity{ID: "u1"}
	ctx := identity.WithContext(context.Background(), id)
	assert.Same(t, id, identity.FromContext(ctx))
}
