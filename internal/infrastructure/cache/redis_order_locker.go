package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skuswap/backend/internal/domain/integration"
)

const defaultLockKeyPrefix = "skuswap:order-lock:"

// releaseScript deletes the lock only if it is still owned by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOrderLocker implements OrderLocker using Redis SET NX with a TTL.
// This is suitable for deployments where several instances receive webhooks.
type RedisOrderLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	wait      time.Duration
}

// NewRedisOrderLocker creates a locker with an existing Redis client
func NewRedisOrderLocker(client redis.UniversalClient, keyPrefix string, wait time.Duration) *RedisOrderLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	return &RedisOrderLocker{
		client:    client,
		keyPrefix: keyPrefix,
		wait:      wait,
	}
}

// Acquire blocks until the order lock is free, ctx is done, or the wait elapses.
// Uses SETNX (SET if Not eXists) so only one holder exists at a time.
func (l *RedisOrderLocker) Acquire(ctx context.Context, orderID integration.PlatformID, ttl time.Duration) (func(), error) {
	key := l.keyPrefix + orderID.String()
	token := uuid.NewString()

	err := waitForLock(ctx, l.wait, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("failed to acquire order lock: %w", err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even when the pipeline context is already done
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}

var _ integration.OrderLocker = (*RedisOrderLocker)(nil)
