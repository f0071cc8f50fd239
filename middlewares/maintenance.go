package middlewares

import (
	"fmt"
	"html"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/apigate/internal"
	"github.com/dmitrymomot/apigate/pkg/identity"
	"github.com/dmitrymomot/apigate/pkg/maintenance"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// MaintenanceConfig configures the maintenance gate.
type MaintenanceConfig struct {
	// PlatformDown reports the platform's built-in down-for-maintenance
	// signal; the gate engages when either this or the stored flag is on.
	PlatformDown func() bool

	// AllowedPrefixes are path prefixes that always pass (health, status,
	// login, maintenance-status endpoints).
	AllowedPrefixes []string

	// AllowedIPs are client addresses that always pass.
	AllowedIPs []string

	// BypassRoles let operators keep working during maintenance.
	BypassRoles []string

	// BypassPermission grants bypass to identities holding it.
	BypassPermission string

	// AllowedUserIDs always pass regardless of role.
	AllowedUserIDs []string
}

// MaintenanceOption configures MaintenanceConfig.
type MaintenanceOption func(*MaintenanceConfig)

// WithAllowedPrefixes sets the always-allowed path prefixes.
func WithAllowedPrefixes(prefixes ...string) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.AllowedPrefixes = prefixes
	}
}

// WithAllowedIPs sets the client address allow-list.
func WithAllowedIPs(ips ...string) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.AllowedIPs = ips
	}
}

// WithBypassRoles sets the roles that bypass the gate.
func WithBypassRoles(roles ...string) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.BypassRoles = roles
	}
}

// WithBypassPermission sets the permission that bypasses the gate.
func WithBypassPermission(permission string) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.BypassPermission = permission
	}
}

// WithAllowedUserIDs sets the user ID allow-list.
func WithAllowedUserIDs(ids ...string) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.AllowedUserIDs = ids
	}
}

// WithPlatformDownSignal sets the platform down-for-maintenance probe.
func WithPlatformDownSignal(fn func() bool) MaintenanceOption {
	return func(cfg *MaintenanceConfig) {
		cfg.PlatformDown = fn
	}
}

var defaultAllowedPrefixes = []string{
	"/health",
	"/api/health",
	"/api/status",
	"/api/maintenance/status",
	"/login",
}

// Maintenance gates requests while maintenance mode is on. Bypass rules
// are evaluated in order, first match wins: gate off, allowed prefix,
// allowed IP, identity bypass (role, permission, or user allow-list).
// Everything else gets a 503 with Retry-After; JSON clients receive the
// maintenance envelope, browsers a plain unavailable page.
//
// Run this stage after Authenticate when identity bypass should work;
// the gate treats requests without identity as anonymous.
func Maintenance(manager *maintenance.Manager, opts ...MaintenanceOption) internal.Middleware {
	cfg := &MaintenanceConfig{
		AllowedPrefixes: defaultAllowedPrefixes,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			down := cfg.PlatformDown != nil && cfg.PlatformDown()
			if !down {
				enabled, err := manager.Enabled(c.Context())
				if err != nil {
					// Store trouble must not take the API down.
					c.LogWarn("maintenance flag check failed", "error", err)
					return next(c)
				}
				down = enabled
			}
			if !down {
				return next(c)
			}

			path := c.Request().URL.Path
			if slices.ContainsFunc(cfg.AllowedPrefixes, func(p string) bool {
				return strings.HasPrefix(path, p)
			}) {
				return next(c)
			}

			if slices.Contains(cfg.AllowedIPs, c.ClientIP()) {
				return next(c)
			}

			if id := c.Identity(); id != nil {
				if len(cfg.BypassRoles) > 0 && id.HasRoles(identity.MatchAny, cfg.BypassRoles...) {
					return next(c)
				}
				if cfg.BypassPermission != "" && id.HasPermissions(identity.MatchAny, cfg.BypassPermission) {
					return next(c)
				}
				if slices.Contains(cfg.AllowedUserIDs, id.ID) {
					return next(c)
				}
			}

			status, err := manager.Status(c.Context())
			if err != nil {
				status.State = maintenance.DefaultState()
			}
			state := status.State.Normalize()

			c.SetHeader("Retry-After", strconv.Itoa(state.RetryAfter))
			c.SetHeader("X-Maintenance-Mode", "true")

			if !wantsJSON(c.Request()) {
				return denyWithPage(c, state)
			}
			return maintenanceError(state)
		}
	}
}

// maintenanceError builds the 503 envelope error carrying the
// maintenance details.
func maintenanceError(state maintenance.State) *internal.HTTPError {
	return internal.ErrServiceUnavailable(state.Message,
		internal.WithCode(respond.TypeMaintenanceMode),
		internal.WithEnvelope(func(env *respond.Envelope) {
			env.Error.RetryAfter = state.RetryAfter
			env.Error.EstimatedDuration = state.EstimatedDuration
			env.Error.ContactEmail = state.ContactEmail
			env.Maintenance = maintenanceDetails(state)
		}),
	)
}

type maintenanceView struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Progress  int    `json:"progress"`
}

func maintenanceDetails(state maintenance.State) maintenanceView {
	v := maintenanceView{
		Reason:   state.Reason,
		Progress: state.Progress,
	}
	if !state.StartTime.IsZero() {
		v.StartTime = state.StartTime.UTC().Format(time.RFC3339)
	}
	if !state.EndTime.IsZero() {
		v.EndTime = state.EndTime.UTC().Format(time.RFC3339)
	}
	return v
}

// denyWithPage writes a minimal unavailable page for browser clients.
// Timing and content-type headers go in before the release, since headers
// set after the first write are dropped.
func denyWithPage(c internal.Context, state maintenance.State) error {
	body := fmt.Sprintf(
		"<!DOCTYPE html><html><head><title>Service Unavailable</title></head>"+
			"<body><h1>We&rsquo;ll be back soon</h1><p>%s</p></body></html>",
		html.EscapeString(state.Message),
	)
	setResponseTime(c)
	rw := c.ResponseWriter()
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if rw.Capturing() {
		return rw.Release(http.StatusServiceUnavailable, []byte(body))
	}
	return c.String(http.StatusServiceUnavailable, body)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") || strings.Contains(accept, "+json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API-prefixed routes default to JSON regardless of Accept.
	return strings.HasPrefix(r.URL.Path, "/api/")
}
