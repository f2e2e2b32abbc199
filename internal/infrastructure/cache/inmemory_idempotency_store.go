package cache

import (
	"context"
	"sync"
	"time"

	"github.com/skuswap/backend/internal/domain/integration"
)

const idempotencyCleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a store and starts a goroutine that
// drops expired deliveries. Call Close to stop it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(idempotencyCleanupInterval)
	return s
}

// MarkProcessed marks a delivery as processed with a TTL.
// An expired entry is overwritten as if it had never been seen.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.expiries[deliveryID]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.expiries[deliveryID] = now.Add(ttl)
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiresAt := range s.expiries {
		if !now.Before(expiresAt) {
			delete(s.expiries, id)
		}
	}
}

// Size returns the number of remembered deliveries
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiries)
}

var _ integration.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
