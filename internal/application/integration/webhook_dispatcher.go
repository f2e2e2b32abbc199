package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/skuswap/backend/internal/infrastructure/logger"
)

// ErrDispatcherStopped is returned when a task is submitted after Stop
var ErrDispatcherStopped = errors.New("integration: webhook dispatcher stopped")

// DefaultMaxConcurrent is used when no concurrency bound is configured
const DefaultMaxConcurrent = 16

// Task is a unit of background work run by the dispatcher
type Task func(ctx context.Context)

// WebhookDispatcher runs acknowledged webhook pipelines in the background
// with bounded concurrency. Stop drains in-flight tasks.
type WebhookDispatcher struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// NewWebhookDispatcher creates a dispatcher running at most maxConcurrent tasks at once
func NewWebhookDispatcher(maxConcurrent int, logger *zap.Logger) *WebhookDispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookDispatcher{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: logger,
	}
}

// Submit schedules task and returns immediately. ctx must already be
// detached from the request that produced the task. Tasks beyond the
// concurrency bound wait for a free slot.
func (d *WebhookDispatcher) Submit(ctx context.Context, name string, task Task) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrDispatcherStopped
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	go func() {
		defer d.wg.Done()

		if err := d.sem.Acquire(ctx, 1); err != nil {
			logger.WithLogger(ctx, d.logger).Warn("Dropped background task",
				zap.String("task", name),
				zap.Error(err),
			)
			return
		}
		defer d.sem.Release(1)

		d.run(ctx, name, task)
	}()
	return nil
}

func (d *WebhookDispatcher) run(ctx context.Context, name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithLogger(ctx, d.logger).Error("Background task panicked",
				zap.String("task", name),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"),
			)
		}
	}()
	task(ctx)
}

// Stop rejects new tasks and waits for in-flight ones to finish or ctx to end
func (d *WebhookDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Webhook dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Webhook dispatcher stopped before draining", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
