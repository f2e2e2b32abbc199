package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skuswap/backend/internal/domain/integration"
)

const defaultDeliveryKeyPrefix = "skuswap:webhook-delivery:"

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// Deliveries are shared between all instances behind the same Redis.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store with an existing Redis client.
// The client is owned by the caller and is not closed by Close.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultDeliveryKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a delivery as processed with a TTL.
// Uses SETNX (SET if Not eXists) so concurrent deliveries race on one key.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+deliveryID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as processed: %w", err)
	}
	return ok, nil
}

// Close is a no-op; the Redis client is closed by its owner
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ integration.IdempotencyStore = (*RedisIdempotencyStore)(nil)
