package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// releaseScript deletes the key only if we still own it
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisClient is the part of the Redis client the locker needs
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisConfig holds distributed lock settings
type RedisConfig struct {
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
	WaitTimeout   time.Duration
}

// RedisLocker implements Locker with SET NX PX and a token-checked release
type RedisLocker struct {
	client RedisClient
	config RedisConfig
	logger *logger.Logger
}

// NewRedisLocker creates a distributed locker
func NewRedisLocker(client RedisClient, config RedisConfig, log *logger.Logger) *RedisLocker {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Second
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 25 * time.Millisecond
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisLocker{client: client, config: config, logger: log}
}

// Acquire polls until the key is set by us, the wait timeout passes or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	fullKey := l.config.Prefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.config.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.config.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.config.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be gone
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
			switch {
			case err != nil:
				l.logger.Warn("Failed to release lock, it frees when the TTL expires",
					logger.String("key", key),
					logger.Duration("ttl", l.config.TTL),
					logger.Err(err),
				)
			case deleted == 0:
				l.logger.Warn("Lock expired before release",
					logger.String("key", key),
					logger.Duration("ttl", l.config.TTL),
				)
			}
		})
	}
}
