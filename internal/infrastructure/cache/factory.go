package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewOrderLocker returns a Redis-backed locker when client is non-nil and an
// in-memory locker otherwise.
// WARNING: the in-memory locker does not coordinate across process instances.
func NewOrderLocker(client redis.UniversalClient, wait time.Duration, logger *zap.Logger) integration.OrderLocker {
	if client != nil {
		logger.Info("Using Redis order locker")
		return NewRedisOrderLocker(client, defaultLockKeyPrefix, wait)
	}
	logger.Warn("Redis not configured, using in-memory order locker")
	return NewInMemoryOrderLocker(wait)
}

// NewIdempotencyStore returns a Redis-backed delivery store when client is
// non-nil and an in-memory store otherwise.
func NewIdempotencyStore(client redis.UniversalClient, logger *zap.Logger) integration.IdempotencyStore {
	if client != nil {
		logger.Info("Using Redis webhook idempotency store")
		return NewRedisIdempotencyStore(client, defaultDeliveryKeyPrefix)
	}
	logger.Warn("Redis not configured, using in-memory webhook idempotency store")
	return NewInMemoryIdempotencyStore()
}
