package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skuswap/backend/internal/domain/integration"
)

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryOrderLocker implements OrderLocker with a process-local map.
// It only serializes deliveries handled by the same instance.
type InMemoryOrderLocker struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	wait  time.Duration
}

// NewInMemoryOrderLocker creates an in-memory locker that waits up to wait for a held lock
func NewInMemoryOrderLocker(wait time.Duration) *InMemoryOrderLocker {
	return &InMemoryOrderLocker{
		locks: make(map[string]lockEntry),
		wait:  wait,
	}
}

// Acquire blocks until the order lock is free, ctx is done, or the wait elapses
func (l *InMemoryOrderLocker) Acquire(ctx context.Context, orderID integration.PlatformID, ttl time.Duration) (func(), error) {
	key := orderID.String()
	token := uuid.NewString()

	err := waitForLock(ctx, l.wait, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()

		if e, held := l.locks[key]; held && time.Now().Before(e.expiresAt) {
			return false, nil
		}
		l.locks[key] = lockEntry{token: token, expiresAt: time.Now().Add(ttl)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// An expired lock may have been taken over by another holder
			if e, held := l.locks[key]; held && e.token == token {
				delete(l.locks, key)
			}
		})
	}, nil
}

// Held reports whether a live lock exists for the order
func (l *InMemoryOrderLocker) Held(orderID integration.PlatformID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, held := l.locks[orderID.String()]
	return held && time.Now().Before(e.expiresAt)
}

var _ integration.OrderLocker = (*InMemoryOrderLocker)(nil)
