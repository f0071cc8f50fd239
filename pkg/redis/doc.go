// Package redis connects the gateway to Redis.
//
// Connect parses redis:// and rediss:// URLs, applies pool settings from
// Config and retries the initial ping with fibonacci backoff before
// giving up:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		URL:      "redis://localhost:6379/0",
//		PoolSize: 20,
//	})
//
// Healthcheck and Shutdown adapt the client to the health endpoint and
// graceful-shutdown hooks used by the application runtime.
package redis
