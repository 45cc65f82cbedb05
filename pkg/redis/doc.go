// Package redis connects to a Redis server with retries and exposes a
// health-check probe. The returned client backs the distributed entity locks
// and the effect broadcaster.
//
// Configuration is described by Config, whose fields are populated from
// environment variables via github.com/caarlos0/env.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client)
package redis
