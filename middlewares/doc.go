// Package middlewares provides the gateway's request pipeline stages.
//
// The stages compose around a single Context per request. Recommended
// order, outermost first:
//
//	apigate.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.CORS(),
//	    middlewares.Activity(recorder),
//	    middlewares.Format(),
//	    middlewares.Recover(),
//	    middlewares.Authenticate(authResolver),
//	    middlewares.Maintenance(manager),
//	    middlewares.Version(resolver),
//	    middlewares.RateLimit(limiter),
//	)
//
// Format sits outside Recover and the gates so every outcome, including
// panics, gate rejections, and route misses, leaves the server as the
// standard response envelope. Activity sits outside Format because it
// reads the final status code after the envelope is written.
// Authenticate runs before Maintenance so role-based maintenance bypass
// and user-keyed rate limits see the caller's identity.
//
// Access control is declared per route or per group:
//
//	r.Route("/admin", func(r apigate.Router) {
//	    r.Use(middlewares.RequireRoles(identity.MatchAny, "admin", "super_admin"))
//	    ...
//	})
//
//	r.DELETE("/posts/{id}", h.delete,
//	    middlewares.RequirePermissions(identity.MatchAll, "posts.delete"))
package middlewares
