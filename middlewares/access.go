package middlewares

import (
	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/identity"
)

// Authenticate resolves the request's identity and stores it in the request
// context for the gates downstream. A resolver that returns (nil, nil) leaves
// the request anonymous; a resolver error rejects the request with 401.
//
// Authenticate itself never requires an identity. Use RequireRoles or
// RequirePermissions on the routes that do.
func Authenticate(resolver identity.Resolver) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id, err := resolver.Resolve(c.Request())
			if err != nil {
				return internal.ErrUnauthorized("Authentication failed", internal.WithError(err))
			}
			if id != nil {
				c.Set(identity.CtxKey(), id)
			}
			return next(c)
		}
	}
}

// RequireRoles rejects requests whose identity does not satisfy the required
// role set under the given logic. Anonymous requests get 401, authenticated
// ones lacking the roles get 403.
func RequireRoles(logic identity.Logic, roles ...string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := c.Identity()
			if id == nil {
				return internal.ErrUnauthorized("Authentication required")
			}
			if !id.HasRoles(logic, roles...) {
				return internal.ErrForbidden("Insufficient role")
			}
			return next(c)
		}
	}
}

// RequirePermissions rejects requests whose identity does not satisfy the
// required permission set under the given logic. The identity's permission
// set is the union across all of its roles. Anonymous requests get 401,
// authenticated ones lacking the permissions get 403.
func RequirePermissions(logic identity.Logic, permissions ...string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := c.Identity()
			if id == nil {
				return internal.ErrUnauthorized("Authentication required")
			}
			if !id.HasPermissions(logic, permissions...) {
				return internal.ErrForbidden("Insufficient permissions")
			}
			return next(c)
		}
	}
}
