package router

import (
	"github.com/gin-gonic/gin"

	"github.com/skuswap/backend/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers exposed by the service
type Handlers struct {
	Webhook       *handler.ShopifyWebhookHandler
	SkuMapping    *handler.SkuMappingHandler
	ProcessingLog *handler.ProcessingLogHandler
	Health        *handler.HealthHandler

	// AdminAuth guards the mapping and log endpoints
	AdminAuth gin.HandlerFunc
}

// RegisterRoutes mounts /health on the engine and the API groups on r.
// Call r.Setup afterwards.
func RegisterRoutes(engine *gin.Engine, r *Router, h Handlers) {
	if h.AdminAuth == nil {
		panic("router: AdminAuth is required")
	}

	engine.GET("/health", h.Health.Health)

	// Deliveries authenticate with their HMAC signature, not a bearer token
	webhookRoutes := NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/order-created", h.Webhook.HandleOrderCreated)
	webhookRoutes.Group("logs", "/logs").
		Use(h.AdminAuth).
		GET("", h.ProcessingLog.ListRecent).
		GET("/order/:orderId", h.ProcessingLog.ListByOrder)
	r.Register(webhookRoutes)

	mappingRoutes := NewDomainGroup("sku-mappings", "/sku-mappings").Use(h.AdminAuth)
	mappingRoutes.GET("", h.SkuMapping.List).
		POST("", h.SkuMapping.Create).
		POST("/bulk", h.SkuMapping.BulkUpsert).
		GET("/:id", h.SkuMapping.Get).
		PUT("/:id", h.SkuMapping.Update).
		DELETE("/:id", h.SkuMapping.Delete)
	r.Register(mappingRoutes)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.Health.Info)
	r.Register(systemRoutes)
}
