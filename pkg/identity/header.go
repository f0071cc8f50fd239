package identity

import (
	"net/http"
	"strings"
)

// Trusted headers set by the upstream auth layer. The gateway itself does
// not verify credentials; it trusts the proxy in front of it to strip
// these headers from client traffic.
const (
	HeaderUserID      = "X-Auth-User-ID"
	HeaderRoles       = "X-Auth-Roles"
	HeaderPermissions = "X-Auth-Permissions"
)

// HeaderResolver reads the identity from trusted upstream headers.
// Requests without the user ID header are anonymous.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (*Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return nil, nil
	}
	return &Identity{
		ID:          userID,
		Roles:       splitList(r.Header.Get(HeaderRoles)),
		Permissions: splitList(r.Header.Get(HeaderPermissions)),
	}, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
