package flagstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a counter and sets its window expiry only when the
// key is created. Running as a Lua script makes the whole operation atomic,
// so concurrent increments from multiple workers cannot lose updates or
// leave a counter without a TTL.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisCounter is a Counter backed by Redis, shared across workers.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCounter creates a counter set on the given client. An optional
// prefix namespaces the keys ("{prefix}:{key}").
func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

// Increment atomically adds one to the counter at key, creating it with the
// window TTL if absent, and returns the new count.
func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return incrScript.Run(ctx, c.client, []string{c.prefixedKey(key)}, window.Milliseconds()).Int64()
}

// Peek returns the current count and remaining window without modifying the
// counter. A missing key reports zero.
func (c *RedisCounter) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	k := c.prefixedKey(key)

	count, err := c.client.Get(ctx, k).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	ttl, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// Key exists without expiry; treat as a fresh window.
		ttl = 0
	}

	return count, ttl, nil
}

func (c *RedisCounter) prefixedKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

var _ Counter = (*RedisCounter)(nil)
