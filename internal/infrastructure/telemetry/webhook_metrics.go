package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Rejection reasons for webhook deliveries
const (
	RejectReasonSignature   = "invalid_signature"
	RejectReasonPayloadSize = "payload_too_large"
	RejectReasonUnreadable  = "unreadable_body"
	RejectReasonShutdown    = "shutting_down"
)

// WebhookMetrics tracks webhook intake and the replacement pipeline.
// A nil *WebhookMetrics is valid and records nothing.
type WebhookMetrics struct {
	received         *Counter
	rejected         *Counter
	outcomes         *Counter
	replacements     *Counter
	recorderFailures *Counter
	lockFailures     *Counter
	duplicates       *Counter
	duration         *Histogram
}

// NewWebhookMetrics creates the webhook instruments on meter
func NewWebhookMetrics(meter metric.Meter) (*WebhookMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &WebhookMetrics{}
	var err error

	if m.received, err = NewCounter(meter,
		"skuswap_webhooks_received_total",
		"Total number of order webhooks received",
		"{webhooks}",
	); err != nil {
		return nil, err
	}
	if m.rejected, err = NewCounter(meter,
		"skuswap_webhooks_rejected_total",
		"Total number of order webhooks rejected before processing",
		"{webhooks}",
	); err != nil {
		return nil, err
	}
	if m.outcomes, err = NewCounter(meter,
		"skuswap_webhook_outcomes_total",
		"Processed webhooks by final status",
		"{webhooks}",
	); err != nil {
		return nil, err
	}
	if m.replacements, err = NewCounter(meter,
		"skuswap_sku_replacements_total",
		"Total number of line items rewritten on the platform",
		"{line_items}",
	); err != nil {
		return nil, err
	}
	if m.recorderFailures, err = NewCounter(meter,
		"skuswap_processing_log_failures_total",
		"Processing log entries that could not be persisted",
		"{entries}",
	); err != nil {
		return nil, err
	}
	if m.lockFailures, err = NewCounter(meter,
		"skuswap_order_lock_failures_total",
		"Pipelines that proceeded without the per-order lock",
		"{webhooks}",
	); err != nil {
		return nil, err
	}
	if m.duplicates, err = NewCounter(meter,
		"skuswap_webhook_duplicates_total",
		"Redelivered webhooks skipped because their delivery id was already processed",
		"{webhooks}",
	); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "skuswap_webhook_processing_duration_seconds",
		Description: "Time from acknowledgement to a recorded outcome",
		Unit:        "s",
		Boundaries:  PipelineDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// NewNopWebhookMetrics returns metrics backed by a no-op meter
func NewNopWebhookMetrics() *WebhookMetrics {
	m, _ := NewWebhookMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordReceived counts an incoming delivery
func (m *WebhookMetrics) RecordReceived(ctx context.Context) {
	if m == nil {
		return
	}
	m.received.Inc(ctx)
}

// RecordRejected counts a delivery refused before acknowledgement
func (m *WebhookMetrics) RecordRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.Inc(ctx, AttrReason.String(reason))
}

// RecordOutcome counts a finished pipeline and its duration
func (m *WebhookMetrics) RecordOutcome(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.Inc(ctx, AttrStatus.String(status))
	m.duration.RecordDuration(ctx, d, AttrStatus.String(status))
}

// RecordReplacements counts line items rewritten on the platform
func (m *WebhookMetrics) RecordReplacements(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.replacements.Add(ctx, int64(n))
}

// RecordRecorderFailure counts a processing log that was not persisted
func (m *WebhookMetrics) RecordRecorderFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.recorderFailures.Inc(ctx)
}

// RecordLockFailure counts a pipeline that ran without the per-order lock
func (m *WebhookMetrics) RecordLockFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.lockFailures.Inc(ctx)
}

// RecordDuplicate counts a redelivery that was skipped
func (m *WebhookMetrics) RecordDuplicate(ctx context.Context) {
	if m == nil {
		return
	}
	m.duplicates.Inc(ctx)
}
