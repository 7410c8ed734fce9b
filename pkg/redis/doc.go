// Package redis connects to the optional Redis server that backs the shared
// VIES answer cache.
//
// The package wraps github.com/redis/go-redis/v9 and adds:
//
//   - Connect, which pings the server with retries before returning a client.
//   - Healthcheck, a probe function for readiness endpoints.
//
// Config is populated from environment variables with pkg/config:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	if cfg.Enabled() {
//		client, err := redis.Connect(ctx, cfg)
//		if err != nil {
//			return err
//		}
//		defer client.Close()
//	}
//
// Errors are sentinel values joined with the go-redis error, so errors.Is works
// on both.
package redis
