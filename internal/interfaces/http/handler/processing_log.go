package handler

import (
	"github.com/gin-gonic/gin"

	integrationapp "github.com/skuswap/backend/internal/application/integration"
	"github.com/skuswap/backend/internal/domain/integration"
)

// ProcessingLogHandler exposes the webhook processing log
type ProcessingLogHandler struct {
	BaseHandler
	logService *integrationapp.ProcessingLogService
}

// NewProcessingLogHandler creates a new ProcessingLogHandler
func NewProcessingLogHandler(logService *integrationapp.ProcessingLogService) *ProcessingLogHandler {
	return &ProcessingLogHandler{
		logService: logService,
	}
}

// ProcessingLogQuery holds the list parameters
type ProcessingLogQuery struct {
	Limit  int    `form:"limit"`
	Status string `form:"status"`
}

// ListRecent godoc
//
//	@ID				listProcessingLogs
//	@Summary		List recent webhook processing results
//	@Description	Most recent first; limit defaults to 100 and is capped at 500
//	@Tags			webhooks
//	@Produce		json
//	@Param			limit	query		int		false	"Maximum entries"
//	@Param			status	query		string	false	"success or error"
//	@Success		200		{object}	dto.Response
//	@Router			/webhooks/logs [get]
func (h *ProcessingLogHandler) ListRecent(c *gin.Context) {
	var q ProcessingLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	logs, err := h.logService.ListRecent(c.Request.Context(), q.Limit, integration.ProcessingStatus(q.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, logs)
}

// ListByOrder godoc
//
//	@ID			listProcessingLogsByOrder
//	@Summary	List processing results for one order
//	@Tags		webhooks
//	@Produce	json
//	@Param		orderId	path		string	true	"Platform order ID"
//	@Success	200		{object}	dto.Response
//	@Router		/webhooks/logs/order/{orderId} [get]
func (h *ProcessingLogHandler) ListByOrder(c *gin.Context) {
	logs, err := h.logService.ListByOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, logs)
}
