// Package identity represents the authenticated principal of a request.
//
// Role and permission sets are precomputed by the external auth collaborator
// once per request; the pipeline only reads them. A nil *Identity means the
// request is anonymous ("guest").
package identity

import (
	"context"
	"net/http"
	"slices"
)

// Logic selects how a required set is matched against an identity's set.
type Logic string

const (
	// MatchAll requires every item of the required set to be present (AND).
	MatchAll Logic = "AND"
	// MatchAny requires at least one item of the required set (OR).
	MatchAny Logic = "OR"
)

// GuestRole is the quota role reported for anonymous requests.
const GuestRole = "guest"

// Identity is the authenticated principal with its precomputed role and
// permission name sets. The permission set is the union of permissions
// attached to all of the identity's roles.
type Identity struct {
	ID          string
	Roles       []string
	Permissions []string
}

// HasPermissions reports whether the identity's permission set satisfies the
// required set under the given logic. An empty required set is satisfied.
func (i *Identity) HasPermissions(logic Logic, required ...string) bool {
	return matches(logic, i.Permissions, required)
}

// HasRoles reports whether the identity's role-name set satisfies the
// required set under the given logic. An empty required set is satisfied.
func (i *Identity) HasRoles(logic Logic, required ...string) bool {
	return matches(logic, i.Roles, required)
}

// PrimaryRole returns the identity's first role name, or "user" when the
// identity has no roles. Used for quota selection and rate-limit keys.
func (i *Identity) PrimaryRole() string {
	if len(i.Roles) == 0 {
		return "user"
	}
	return i.Roles[0]
}

func matches(logic Logic, have, required []string) bool {
	if len(required) == 0 {
		return true
	}

	switch logic {
	case MatchAny:
		return slices.ContainsFunc(required, func(r string) bool {
			return slices.Contains(have, r)
		})
	default: // MatchAll
		for _, r := range required {
			if !slices.Contains(have, r) {
				return false
			}
		}
		return true
	}
}

// Resolver populates the identity for a request. Implementations are the
// external auth collaborator (session lookup, token introspection, etc.).
// Returning (nil, nil) means the request is anonymous.
type Resolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (*Identity, error)

func (f ResolverFunc) Resolve(r *http.Request) (*Identity, error) {
	return f(r)
}

type ctxKey struct{}

// CtxKey returns the context key under which the identity is stored.
// Exposed for request-scoped stores that set values by key.
func CtxKey() any {
	return ctxKey{}
}

// WithContext returns a context carrying the identity.
func WithContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in the context, or nil for
// anonymous requests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
