package integration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWebhookDispatcher_RunsTasks(t *testing.T) {
	d := NewWebhookDispatcher(4, zap.NewNop())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Submit(context.Background(), "task", func(context.Context) {
			ran.Add(1)
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.EqualValues(t, 10, ran.Load())
}

func TestWebhookDispatcher_BoundsConcurrency(t *testing.T) {
	d := NewWebhookDispatcher(2, zap.NewNop())

	var current, peak atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 6; i++ {
		require.NoError(t, d.Submit(context.Background(), "task", func(context.Context) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			current.Add(-1)
		}))
	}

	require.Eventually(t, func() bool { return current.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, d.Stop(context.Background()))
	assert.EqualValues(t, 2, peak.Load())
}

func TestWebhookDispatcher_RecoversPanics(t *testing.T) {
	d := NewWebhookDispatcher(1, nil)

	var after atomic.Bool
	require.NoError(t, d.Submit(context.Background(), "boom", func(context.Context) {
		panic("boom")
	}))
	require.NoError(t, d.Submit(context.Background(), "after", func(context.Context) {
		after.Store(true)
	}))

	require.NoError(t, d.Stop(context.Background()))
	assert.True(t, after.Load())
}

func TestWebhookDispatcher_RejectsAfterStop(t *testing.T) {
	d := NewWebhookDispatcher(1, zap.NewNop())
	require.NoError(t, d.Stop(context.Background()))

	err := d.Submit(context.Background(), "late", func(context.Context) {
		t.Error("task must not run after stop")
	})
	assert.ErrorIs(t, err, ErrDispatcherStopped)
}

func TestWebhookDispatcher_StopTimesOut(t *testing.T) {
	d := NewWebhookDispatcher(1, zap.NewNop())
	block := make(chan struct{})
	defer close(block)

	started := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), "slow", func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}

func TestWebhookDispatcher_DropsTaskWhenContextEnds(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	d := NewWebhookDispatcher(1, zap.New(core))
	block := make(chan struct{})

	started := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), "holder", func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	require.NoError(t, d.Submit(ctx, "waiting", func(context.Context) { ran.Store(true) }))

	require.Eventually(t, func() bool {
		return recorded.FilterMessage("Dropped background task").Len() == 1
	}, time.Second, 5*time.Millisecond)
	close(block)

	require.NoError(t, d.Stop(context.Background()))
	assert.False(t, ran.Load())
}
