package flagstore

import "time"

// RedisOption configures the Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		defaultTTL: time.Hour,
		prefix:     "",
	}
}

// WithRedisDefaultTTL sets the default expiration for entries when Set is
// called with a zero TTL.
// Default: 1 hour.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.defaultTTL = d
	}
}

// WithPrefix sets a key prefix for all operations. Keys are stored as
// "{prefix}:{key}", namespacing when multiple stores share one Redis.
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}
