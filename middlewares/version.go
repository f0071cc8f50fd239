package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/apiversion"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// Version resolves the requested API version, rejects unsupported ones
// before route dispatch, and stamps version headers on every response.
// Deprecated versions additionally get Sunset, Deprecation, and Link
// headers pointing at the migration docs.
//
// The resolved version is stored request-scoped; read it with c.Version()
// or apiversion.FromContext.
func Version(resolver *apiversion.Resolver) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			version := resolver.Resolve(c.Request())

			c.SetHeader("X-API-Version", version)
			c.SetHeader("X-Supported-Versions", strings.Join(resolver.SupportedVersions(), ", "))

			if !resolver.Supported(version) {
				return unsupportedVersionError(version, resolver)
			}

			c.Set(apiversion.CtxKey(), version)

			if dep, ok := resolver.Deprecated(version); ok {
				if !dep.SunsetAt.IsZero() {
					c.SetHeader("Sunset", dep.SunsetAt.UTC().Format(http.TimeFormat))
				}
				c.SetHeader("Deprecation", "true")
				if dep.DocsURL != "" {
					c.SetHeader("Link", fmt.Sprintf("<%s>; rel=%q", dep.DocsURL, "deprecation"))
				}
			}

			return next(c)
		}
	}
}

// unsupportedVersionError builds the 400 envelope carrying the requested
// version alongside the supported set.
func unsupportedVersionError(requested string, resolver *apiversion.Resolver) *internal.HTTPError {
	msg := fmt.Sprintf("API version '%s' is not supported", requested)
	return internal.ErrUnsupportedVersion(msg,
		internal.WithEnvelope(func(env *respond.Envelope) {
			env.Error.RequestedVersion = requested
			env.Error.SupportedVersions = resolver.SupportedVersions()
			env.Error.DefaultVersion = resolver.Default()
		}),
	)
}
