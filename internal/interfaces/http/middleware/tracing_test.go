package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/skuswap/backend/internal/infrastructure/logger"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})

	return sr
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, span := range spans {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func newTracedRouter(status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.Use(TracingAttributeInjector())
	router.Use(SpanErrorMarker())
	router.POST("/webhooks/orders/create", func(c *gin.Context) {
		c.Status(status)
	})
	return router
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_AddsRequestAndWebhookIDs(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter(http.StatusOK)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/orders/create", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	req.Header.Set(logger.WebhookIDHeader, "wh-456")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(sr.Ended(), "POST /webhooks/orders/create")
	require.NotNil(t, span, "HTTP span not found")

	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-123", v.AsString())

	v, ok = spanAttr(span, "webhook_id")
	require.True(t, ok)
	assert.Equal(t, "wh-456", v.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_TruncatesLongWebhookID(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter(http.StatusOK)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/orders/create", nil)
	req.Header.Set(logger.WebhookIDHeader, strings.Repeat("w", 300))
	router.ServeHTTP(w, req)

	span := findSpan(sr.Ended(), "POST /webhooks/orders/create")
	require.NotNil(t, span)
	v, ok := spanAttr(span, "webhook_id")
	require.True(t, ok)
	assert.Len(t, v.AsString(), MaxHeaderAttrLength)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status int
		msg    string
	}{
		{http.StatusUnauthorized, "Unauthorized"},
		{http.StatusRequestEntityTooLarge, "Request Too Large"},
		{http.StatusBadRequest, "Client Error"},
		{http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)
			router := newTracedRouter(tt.status)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/webhooks/orders/create", nil)
			router.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)

			span := findSpan(sr.Ended(), "POST /webhooks/orders/create")
			require.NotNil(t, span)
			assert.Equal(t, codes.Error, span.Status().Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, span.Status().Description)
			}
		})
	}
}

func TestTracingAttributeInjector_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	assert.NotPanics(t, func() { router.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	assert.NotPanics(t, func() { router.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
