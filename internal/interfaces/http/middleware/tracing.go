// Package middleware provides HTTP middleware for the service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skuswap/backend/internal/infrastructure/logger"
)

// MaxHeaderAttrLength caps header values copied onto spans
const MaxHeaderAttrLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// Tracing returns OpenTelemetry tracing middleware built on otelgin.
// The span name follows "HTTP METHOD route_pattern".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request_id and webhook_id attributes to the
// current span. It must run after Tracing and RequestID.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", truncate(requestID)))
	}
	if webhookID := c.GetHeader(logger.WebhookIDHeader); webhookID != "" {
		span.SetAttributes(attribute.String("webhook_id", truncate(webhookID)))
	}
}

func truncate(s string) string {
	if len(s) > MaxHeaderAttrLength {
		return s[:MaxHeaderAttrLength]
	}
	return s
}

// SpanErrorMarker marks spans failed for 4xx/5xx responses.
// It must run after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		msg := "Client Error"
		switch {
		case status >= http.StatusInternalServerError:
			msg = "Internal Server Error"
		case status == http.StatusUnauthorized:
			msg = "Unauthorized"
		case status == http.StatusNotFound:
			msg = "Not Found"
		case status == http.StatusRequestEntityTooLarge:
			msg = "Request Too Large"
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
