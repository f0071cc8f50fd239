// Package config loads the gateway configuration from a YAML file with
// environment overrides. Every key can be set through the environment
// using the APIGATE_ prefix and double underscores as separators, e.g.
// APIGATE_SERVER__ADDR or APIGATE_REDIS__URL.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dmitrymomot/apigate/pkg/db"
	"github.com/dmitrymomot/apigate/pkg/logger"
	"github.com/dmitrymomot/apigate/pkg/redis"
)

// EnvPrefix namespaces the gateway's environment variables.
const EnvPrefix = "APIGATE_"

// Config is the root gateway configuration.
type Config struct {
	Server      ServerConfig        `koanf:"server"`
	Logger      logger.Config       `koanf:"logger"`
	Sentry      logger.SentryConfig `koanf:"sentry"`
	Redis       redis.Config        `koanf:"redis"`
	Database    DatabaseConfig      `koanf:"database"`
	Versions    VersionsConfig      `koanf:"versions"`
	Maintenance MaintenanceConfig   `koanf:"maintenance"`
	RateLimit   RateLimitConfig     `koanf:"rate_limit"`
	Activity    ActivityConfig      `koanf:"activity"`
	CORS        CORSConfig          `koanf:"cors"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig wraps the pool settings with a migration toggle.
type DatabaseConfig struct {
	db.Config `koanf:",squash"`

	// Migrate applies pending migrations on startup.
	Migrate bool `koanf:"migrate"`
}

// VersionsConfig drives the API version resolver.
type VersionsConfig struct {
	Supported []string `koanf:"supported"`
	Default   string   `koanf:"default"`

	// Deprecated maps a version to its sunset metadata.
	Deprecated map[string]DeprecationConfig `koanf:"deprecated"`
}

// DeprecationConfig marks a supported version as scheduled for removal.
type DeprecationConfig struct {
	SunsetAt time.Time `koanf:"sunset_at"`
	DocsURL  string    `koanf:"docs_url"`
}

// MaintenanceConfig holds the gate's bypass lists and any recurring
// maintenance windows.
type MaintenanceConfig struct {
	AllowedPrefixes  []string `koanf:"allowed_prefixes"`
	AllowedIPs       []string `koanf:"allowed_ips"`
	BypassRoles      []string `koanf:"bypass_roles"`
	BypassPermission string   `koanf:"bypass_permission"`
	AllowedUserIDs   []string `koanf:"allowed_user_ids"`

	// Windows are recurring maintenance windows driven by cron schedules.
	Windows []MaintenanceWindowConfig `koanf:"windows"`
}

// MaintenanceWindowConfig describes one recurring window.
type MaintenanceWindowConfig struct {
	Cron     string        `koanf:"cron"`
	Duration time.Duration `koanf:"duration"`
	Message  string        `koanf:"message"`
	Reason   string        `koanf:"reason"`
}

// RateLimitConfig holds limiter routing overrides.
type RateLimitConfig struct {
	// ClassPrefixes maps URL path prefixes to limiter classes.
	ClassPrefixes map[string]string `koanf:"class_prefixes"`
}

// ActivityConfig controls the audit log.
type ActivityConfig struct {
	Enabled          bool     `koanf:"enabled"`
	ExcludedPrefixes []string `koanf:"excluded_prefixes"`
}

// CORSConfig holds the cross-origin settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowCredentials bool     `koanf:"allow_credentials"`
}

// Load reads the configuration from path (skipped when the file does not
// exist) and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.addr":             ":8080",
		"server.shutdown_timeout": "30s",
		"logger.level":            "info",
		"logger.format":           "json",
		"versions.supported":      []string{"v1"},
		"versions.default":        "v1",
		"activity.enabled":        true,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}
