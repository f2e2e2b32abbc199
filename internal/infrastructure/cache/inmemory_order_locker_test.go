package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryOrderLocker_AcquireRelease(t *testing.T) {
	locker := NewInMemoryOrderLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "1001", time.Minute)
	require.NoError(t, err)
	assert.True(t, locker.Held("1001"))

	release()
	assert.False(t, locker.Held("1001"))

	// Releasing twice is harmless
	release()

	release2, err := locker.Acquire(ctx, "1001", time.Minute)
	require.NoError(t, err)
	release2()
}

func TestInMemoryOrderLocker_DifferentOrdersIndependent(t *testing.T) {
	locker := NewInMemoryOrderLocker(50 * time.Millisecond)
	ctx := context.Background()

	r1, err := locker.Acquire(ctx, "1001", time.Minute)
	require.NoError(t, err)
	defer r1()

	r2, err := locker.Acquire(ctx, "1002", time.Minute)
	require.NoError(t, err)
	defer r2()
}

func TestInMemoryOrderLocker_Timeout(t *testing.T) {
	locker := NewInMemoryOrderLocker(60 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "1001", time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = locker.Acquire(ctx, "1001", time.Minute)
	assert.ErrorIs(t, err, integration.ErrOrderLockTimeout)
}

func TestInMemoryOrderLocker_ContextCancelled(t *testing.T) {
	locker := NewInMemoryOrderLocker(time.Minute)

	release, err := locker.Acquire(context.Background(), "1001", time.Minute)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "1001", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryOrderLocker_ExpiredLockIsTakenOver(t *testing.T) {
	locker := NewInMemoryOrderLocker(time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "1001", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	fresh, err := locker.Acquire(ctx, "1001", time.Minute)
	require.NoError(t, err)

	// The stale holder must not release the new holder's lock
	stale()
	assert.True(t, locker.Held("1001"))
	fresh()
	assert.False(t, locker.Held("1001"))
}

func TestInMemoryOrderLocker_MutualExclusion(t *testing.T) {
	locker := NewInMemoryOrderLocker(5 * time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "1001", time.Minute)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}
