package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/skuswap/backend/internal/application/integration"
	"github.com/skuswap/backend/internal/infrastructure/ecommerce"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/infrastructure/telemetry"
	"github.com/skuswap/backend/internal/interfaces/http/dto"
)

// DefaultMaxWebhookPayloadSize is used when no payload limit is configured
const DefaultMaxWebhookPayloadSize = 1 << 20

// WebhookVerifier authenticates a raw webhook body against its signature
type WebhookVerifier interface {
	Verify(body []byte, signature string) bool
}

// OrderWebhookProcessor runs the replacement pipeline for one order payload.
// deliveryID is the platform's webhook id and may be empty.
type OrderWebhookProcessor interface {
	ProcessOrderWebhook(ctx context.Context, deliveryID string, payload []byte) integrationapp.ProcessingOutcome
}

// TaskSubmitter schedules work to run after the response has been sent
type TaskSubmitter interface {
	Submit(ctx context.Context, name string, task integrationapp.Task) error
}

// ShopifyWebhookHandler receives order-creation webhooks from the platform.
// It authenticates the delivery, acknowledges it at once and leaves the
// replacement pipeline to the dispatcher.
type ShopifyWebhookHandler struct {
	BaseHandler
	verifier   WebhookVerifier
	processor  OrderWebhookProcessor
	dispatcher TaskSubmitter
	metrics    *telemetry.WebhookMetrics
	maxPayload int64
}

// ShopifyWebhookHandlerConfig contains the dependencies of ShopifyWebhookHandler
type ShopifyWebhookHandlerConfig struct {
	Verifier   WebhookVerifier
	Processor  OrderWebhookProcessor
	Dispatcher TaskSubmitter
	Metrics    *telemetry.WebhookMetrics // optional
	MaxPayload int64
}

// NewShopifyWebhookHandler creates a new ShopifyWebhookHandler
func NewShopifyWebhookHandler(cfg ShopifyWebhookHandlerConfig) *ShopifyWebhookHandler {
	maxPayload := cfg.MaxPayload
	if maxPayload <= 0 {
		maxPayload = DefaultMaxWebhookPayloadSize
	}
	return &ShopifyWebhookHandler{
		verifier:   cfg.Verifier,
		processor:  cfg.Processor,
		dispatcher: cfg.Dispatcher,
		metrics:    cfg.Metrics,
		maxPayload: maxPayload,
	}
}

// HandleOrderCreated godoc
//
//	@ID				handleOrderCreatedWebhook
//	@Summary		Handle order creation webhook
//	@Description	Verify the delivery signature, acknowledge and replace mapped SKUs in the background
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Shopify-Hmac-Sha256	header		string			true	"Base64 HMAC-SHA256 of the raw body"
//	@Param			X-Shopify-Webhook-Id	header		string			false	"Delivery id used to drop redeliveries"
//	@Success		200						{object}	dto.WebhookAck	"Delivery accepted"
//	@Failure		401						{object}	dto.Response	"Invalid signature"
//	@Failure		413						{object}	dto.Response	"Payload too large"
//	@Failure		503						{object}	dto.Response	"Shutting down"
//	@Router			/webhooks/order-created [post]
func (h *ShopifyWebhookHandler) HandleOrderCreated(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxPayload+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.rejectTooLarge(c)
			return
		}
		h.metrics.RecordRejected(ctx, telemetry.RejectReasonUnreadable)
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if int64(len(payload)) > h.maxPayload {
		h.rejectTooLarge(c)
		return
	}

	if !h.verifier.Verify(payload, c.GetHeader(ecommerce.ShopifyHmacHeader)) {
		h.metrics.RecordRejected(ctx, telemetry.RejectReasonSignature)
		logger.L(ctx).Warn("Rejected webhook with invalid signature")
		h.Unauthorized(c, "Webhook signature verification failed")
		return
	}

	deliveryID := c.GetHeader(logger.WebhookIDHeader)

	// The pipeline outlives the request; keep its values, drop its cancellation.
	// It waits for the acknowledgement so the platform never sees a slow 200.
	acked := make(chan struct{})
	taskCtx := context.WithoutCancel(ctx)
	err = h.dispatcher.Submit(taskCtx, "order-created", func(ctx context.Context) {
		<-acked
		h.processor.ProcessOrderWebhook(ctx, deliveryID, payload)
	})
	if err != nil {
		h.metrics.RecordRejected(ctx, telemetry.RejectReasonShutdown)
		logger.L(ctx).Warn("Webhook not scheduled", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Service is shutting down")
		return
	}
	defer close(acked)

	h.metrics.RecordReceived(ctx)
	c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
	c.Writer.Flush()
}

func (h *ShopifyWebhookHandler) rejectTooLarge(c *gin.Context) {
	h.metrics.RecordRejected(c.Request.Context(), telemetry.RejectReasonPayloadSize)
	h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Webhook payload too large")
}
