// Package apiversion resolves the API version requested by a client.
//
// Resolution walks an ordered list of strategies and the first one that
// yields a token wins: vendor media type in Accept, explicit header, query
// parameter, leading path segment, configured default. Tokens are
// normalized so "2", "V2" and "v2" all resolve to "v2".
package apiversion

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Defaults used when options are not supplied.
const (
	DefaultHeader = "X-API-Version"
	DefaultQuery  = "api_version"
)

// acceptVersionRe matches vendor media types carrying a version token,
// e.g. "application/vnd.cms.v2+json".
var acceptVersionRe = regexp.MustCompile(`application/vnd\.[a-z0-9.-]+?\.(v?\d+)\+json`)

// pathVersionRe matches a leading version path segment, e.g. "/v2/posts".
var pathVersionRe = regexp.MustCompile(`^/(v\d+)(?:/|$)`)

// Deprecation marks a supported version as scheduled for removal.
type Deprecation struct {
	SunsetAt time.Time
	DocsURL  string
}

// Resolver derives the API version for a request.
// The zero value is not usable; construct with New.
type Resolver struct {
	supported  []string
	deprecated map[string]Deprecation
	def        string
	header     string
	query      string
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithHeader overrides the version header name. Default: X-API-Version.
func WithHeader(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.header = name
		}
	}
}

// WithQuery overrides the query parameter name. Default: api_version.
func WithQuery(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.query = name
		}
	}
}

// WithDeprecated marks a version as deprecated. Deprecated versions still
// resolve; the middleware attaches sunset headers pointing at the docs.
func WithDeprecated(version string, dep Deprecation) Option {
	return func(r *Resolver) {
		r.deprecated[Normalize(version)] = dep
	}
}

// New creates a resolver for the supported version set. The default version
// must be part of the set; supported tokens are normalized on the way in.
func New(supported []string, def string, opts ...Option) *Resolver {
	r := &Resolver{
		supported:  make([]string, 0, len(supported)),
		deprecated: make(map[string]Deprecation),
		def:        Normalize(def),
		header:     DefaultHeader,
		query:      DefaultQuery,
	}

	for _, v := range supported {
		r.supported = append(r.supported, Normalize(v))
	}
	if !slices.Contains(r.supported, r.def) {
		r.supported = append(r.supported, r.def)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Normalize canonicalizes a version token: strip a leading "v"/"V",
// lowercase, re-prefix with "v". "2", "V2" and "v2" all become "v2".
func Normalize(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	token = strings.TrimPrefix(token, "v")
	if token == "" {
		return ""
	}
	return "v" + token
}

// Resolve derives the version for the request. It never fails: when no
// strategy yields a token the configured default is returned. The result is
// normalized but not validated; call Supported to validate.
func (r *Resolver) Resolve(req *http.Request) string {
	// 1. Vendor media type in Accept.
	if m := acceptVersionRe.FindStringSubmatch(req.Header.Get("Accept")); m != nil {
		return Normalize(m[1])
	}

	// 2. Explicit version header.
	if v := req.Header.Get(r.header); v != "" {
		return Normalize(v)
	}

	// 3. Query parameter.
	if v := req.URL.Query().Get(r.query); v != "" {
		return Normalize(v)
	}

	// 4. Leading path segment.
	if m := pathVersionRe.FindStringSubmatch(req.URL.Path); m != nil {
		return Normalize(m[1])
	}

	// 5. Configured default.
	return r.def
}

// Supported reports whether the (normalized) version is in the supported set.
func (r *Resolver) Supported(version string) bool {
	return slices.Contains(r.supported, Normalize(version))
}

// SupportedVersions returns the supported set in registration order.
func (r *Resolver) SupportedVersions() []string {
	return slices.Clone(r.supported)
}

// Default returns the configured default version.
func (r *Resolver) Default() string {
	return r.def
}

// Deprecated returns deprecation info for a version, if any.
func (r *Resolver) Deprecated(version string) (Deprecation, bool) {
	dep, ok := r.deprecated[Normalize(version)]
	return dep, ok
}

type ctxKey struct{}

// CtxKey returns the context key under which the resolved version is
// stored. Exposed for request-scoped stores that set values by key.
func CtxKey() any {
	return ctxKey{}
}

// WithContext returns a context carrying the resolved version.
func WithContext(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, ctxKey{}, version)
}

// FromContext returns the resolved version stored in the context, or empty.
func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
