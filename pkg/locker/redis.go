package locker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes holders of the same key across processes.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    Config
	log    *slog.Logger
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithLogger sets the logger used to report failed releases.
func WithLogger(l *slog.Logger) RedisOption {
	return func(rl *RedisLocker) {
		if l != nil {
			rl.log = l
		}
	}
}

// NewRedis creates a Redis backed keyed locker.
// Zero values in cfg fall back to DefaultConfig.
func NewRedis(client redis.UniversalClient, cfg Config, opts ...RedisOption) *RedisLocker {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	l := &RedisLocker{client: client, cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With(logger.Component("locker.redis"))
	return l
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	fullKey := l.cfg.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, errors.Join(ErrLockNotAcquired, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be cancelled.
			ctx := context.Background()
			if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
				l.log.ErrorContext(ctx, "lock release failed",
					slog.String("key", fullKey),
					slog.Duration("ttl", l.cfg.TTL),
					logger.Error(err),
				)
			}
		})
	}, nil
}
