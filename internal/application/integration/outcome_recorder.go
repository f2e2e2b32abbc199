package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/infrastructure/telemetry"
)

// OutcomeRecorder appends processing log entries. Recording never fails the
// caller: persistence errors are logged and counted.
type OutcomeRecorder struct {
	repo    integration.ProcessingLogRepository
	metrics *telemetry.WebhookMetrics
}

// NewOutcomeRecorder creates a new OutcomeRecorder
func NewOutcomeRecorder(repo integration.ProcessingLogRepository, metrics *telemetry.WebhookMetrics) *OutcomeRecorder {
	return &OutcomeRecorder{repo: repo, metrics: metrics}
}

// Record builds a log entry and appends it. It returns the entry that was
// written, or nil when it could not be built or saved.
func (r *OutcomeRecorder) Record(
	ctx context.Context,
	orderID string,
	orderName string,
	status integration.ProcessingStatus,
	message string,
	replacements []integration.Replacement,
	errorDetails string,
) *integration.ProcessingLog {
	entry, err := integration.NewProcessingLog(orderID, orderName, status, message, replacements, errorDetails)
	if err != nil {
		r.metrics.RecordRecorderFailure(ctx)
		logger.L(ctx).Error("Invalid processing log entry",
			zap.String("status", status.String()),
			zap.Error(err),
		)
		return nil
	}

	if err := r.repo.Save(ctx, entry); err != nil {
		r.metrics.RecordRecorderFailure(ctx)
		logger.L(ctx).Error("Failed to save processing log",
			zap.String("status", status.String()),
			zap.String("message", message),
			zap.Error(err),
		)
		return nil
	}
	return entry
}
