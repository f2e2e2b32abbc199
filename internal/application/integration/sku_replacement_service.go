package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultLockTTL bounds how long a per-order lock survives a crashed holder
	DefaultLockTTL = 2 * time.Minute
	// DefaultDedupeTTL is how long a processed delivery id is remembered
	DefaultDedupeTTL = 48 * time.Hour
)

// ProcessingOutcome is the result of one pipeline run
type ProcessingOutcome struct {
	OrderID      string
	OrderName    string
	Status       integration.ProcessingStatus
	Message      string
	Replacements []integration.Replacement
	Err          error
	// Log is the persisted entry, nil if recording failed
	Log *integration.ProcessingLog
}

// SkuReplacementService runs the post-acknowledgement pipeline for an order
// creation webhook: decode, deduplicate, lock, resolve, mutate, record.
type SkuReplacementService struct {
	mappings   integration.SkuMappingReader
	mutator    *OrderMutator
	locker     integration.OrderLocker
	deliveries integration.IdempotencyStore
	recorder   *OutcomeRecorder
	metrics    *telemetry.WebhookMetrics
	lockTTL    time.Duration
	dedupeTTL  time.Duration
}

// SkuReplacementServiceConfig contains the dependencies of SkuReplacementService
type SkuReplacementServiceConfig struct {
	Mappings   integration.SkuMappingReader
	Editor     integration.OrderEditor
	Locker     integration.OrderLocker      // optional
	Deliveries integration.IdempotencyStore // optional
	Logs       integration.ProcessingLogRepository
	Metrics    *telemetry.WebhookMetrics // optional
	LockTTL    time.Duration
	DedupeTTL  time.Duration
}

// NewSkuReplacementService creates a new SkuReplacementService
func NewSkuReplacementService(cfg SkuReplacementServiceConfig) *SkuReplacementService {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	dedupeTTL := cfg.DedupeTTL
	if dedupeTTL <= 0 {
		dedupeTTL = DefaultDedupeTTL
	}
	return &SkuReplacementService{
		mappings:   cfg.Mappings,
		mutator:    NewOrderMutator(cfg.Editor),
		locker:     cfg.Locker,
		deliveries: cfg.Deliveries,
		recorder:   NewOutcomeRecorder(cfg.Logs, cfg.Metrics),
		metrics:    cfg.Metrics,
		lockTTL:    lockTTL,
		dedupeTTL:  dedupeTTL,
	}
}

// ProcessOrderWebhook processes one verified order-creation payload and
// records exactly one processing log entry for it. It never returns an error:
// every failure, including a panic, ends up in the log store.
//
// deliveryID is the platform's webhook id. A delivery id seen before is
// recorded as a duplicate and not applied again. An empty id skips that check.
func (s *SkuReplacementService) ProcessOrderWebhook(ctx context.Context, deliveryID string, payload []byte) (outcome ProcessingOutcome) {
	start := time.Now()
	if deliveryID != "" {
		ctx = logger.WithWebhookID(ctx, deliveryID)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "SkuReplacementService", "ProcessOrderWebhook")
	defer span.End()

	outcome.OrderID, outcome.OrderName = peekOrderIdentity(payload)

	defer func() {
		if r := recover(); r != nil {
			logger.L(ctx).Error("Panic while processing webhook",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			outcome = s.fail(ctx, outcome.OrderID, outcome.OrderName,
				integration.MessageProcessingFailed, outcome.Replacements, fmt.Errorf("panic: %v", r))
		}

		span.SetAttributes(
			attribute.String(telemetry.SpanAttrOrderID, outcome.OrderID),
			attribute.String(telemetry.SpanAttrStatus, outcome.Status.String()),
			attribute.Int(telemetry.SpanAttrReplacementCount, len(outcome.Replacements)),
		)
		if outcome.Err != nil {
			telemetry.RecordError(span, outcome.Err)
		} else {
			telemetry.SetOK(span)
		}
		s.metrics.RecordOutcome(ctx, outcome.Status.String(), time.Since(start))
	}()

	order, err := integration.DecodeIncomingOrder(payload)
	if err != nil {
		return s.fail(ctx, outcome.OrderID, outcome.OrderName, integration.MessageProcessingFailed, nil, err)
	}

	ctx = logger.WithOrderID(ctx, order.ID.String())
	orderName := order.Name
	if orderName == "" {
		orderName = integration.UnknownOrderValue
	}
	outcome.OrderID, outcome.OrderName = order.ID.String(), orderName

	if !s.firstDelivery(ctx, deliveryID) {
		logger.L(ctx).Info("Skipping already processed webhook delivery")
		return s.succeed(ctx, outcome.OrderID, outcome.OrderName, integration.MessageDuplicateDelivery, nil)
	}

	if release := s.lock(ctx, order.ID); release != nil {
		defer release()
	}

	mappings, err := s.mappings.FindActive(ctx)
	if err != nil {
		return s.fail(ctx, outcome.OrderID, outcome.OrderName, integration.MessageProcessingFailed, nil,
			fmt.Errorf("load active mappings: %w", err))
	}

	plan := integration.ResolveReplacements(order, mappings)
	if plan.IsEmpty() {
		logger.L(ctx).Info("No SKU replacements for order", zap.Strings("order_tags", order.TagSet().Slice()))
		return s.succeed(ctx, outcome.OrderID, outcome.OrderName, integration.MessageNoReplacements, nil)
	}

	logger.L(ctx).Info("Applying SKU replacements", zap.Int("planned", plan.Len()))
	// outcome.Replacements tracks progress for the panic path
	err = s.mutator.ApplyEach(ctx, order, plan, func(r integration.Replacement) {
		outcome.Replacements = append(outcome.Replacements, r)
		s.metrics.RecordReplacements(ctx, 1)
	})
	applied := outcome.Replacements
	if err != nil {
		return s.fail(ctx, outcome.OrderID, outcome.OrderName, integration.MessageUpdateFailed, applied, err)
	}

	return s.succeed(ctx, outcome.OrderID, outcome.OrderName, integration.ReplacedMessage(len(applied)), applied)
}

// firstDelivery claims deliveryID in the idempotency store. Store errors are
// not fatal: the delivery is processed and the failure is logged.
func (s *SkuReplacementService) firstDelivery(ctx context.Context, deliveryID string) bool {
	if s.deliveries == nil || deliveryID == "" {
		return true
	}
	first, err := s.deliveries.MarkProcessed(ctx, deliveryID, s.dedupeTTL)
	if err != nil {
		logger.L(ctx).Warn("Proceeding without delivery deduplication", zap.Error(err))
		return true
	}
	if !first {
		s.metrics.RecordDuplicate(ctx)
	}
	return first
}

// lock acquires the per-order lock. Failing to lock is not fatal: the
// pipeline continues unlocked and the failure is logged and counted.
func (s *SkuReplacementService) lock(ctx context.Context, orderID integration.PlatformID) func() {
	if s.locker == nil {
		return nil
	}
	release, err := s.locker.Acquire(ctx, orderID, s.lockTTL)
	if err != nil {
		s.metrics.RecordLockFailure(ctx)
		logger.L(ctx).Warn("Proceeding without order lock", zap.Error(err))
		return nil
	}
	return release
}

func (s *SkuReplacementService) succeed(
	ctx context.Context,
	orderID, orderName, message string,
	applied []integration.Replacement,
) ProcessingOutcome {
	entry := s.recorder.Record(ctx, orderID, orderName, integration.ProcessingStatusSuccess, message, applied, "")
	logger.L(ctx).Info("Order webhook processed",
		zap.String("message", message),
		zap.Int("replaced", len(applied)),
	)
	return ProcessingOutcome{
		OrderID:      orderID,
		OrderName:    orderName,
		Status:       integration.ProcessingStatusSuccess,
		Message:      message,
		Replacements: applied,
		Log:          entry,
	}
}

func (s *SkuReplacementService) fail(
	ctx context.Context,
	orderID, orderName, message string,
	applied []integration.Replacement,
	cause error,
) ProcessingOutcome {
	entry := s.recorder.Record(ctx, orderID, orderName, integration.ProcessingStatusError, message, applied, cause.Error())
	logger.L(ctx).Error("Order webhook failed",
		zap.String("message", message),
		zap.Int("replaced", len(applied)),
		zap.Error(cause),
	)
	return ProcessingOutcome{
		OrderID:      orderID,
		OrderName:    orderName,
		Status:       integration.ProcessingStatusError,
		Message:      message,
		Replacements: applied,
		Err:          cause,
		Log:          entry,
	}
}

// peekOrderIdentity extracts the order id and name from a payload that may
// not decode as a full order. Missing values become "unknown".
func peekOrderIdentity(payload []byte) (string, string) {
	var peek struct {
		ID   integration.PlatformID `json:"id"`
		Name string                 `json:"name"`
	}
	_ = json.Unmarshal(payload, &peek)

	id, name := peek.ID.String(), peek.Name
	if id == "" {
		id = integration.UnknownOrderValue
	}
	if name == "" {
		name = integration.UnknownOrderValue
	}
	return id, name
}
