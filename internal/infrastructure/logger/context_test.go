package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestContextIDs(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithWebhookID(ctx, "wh-1")
	ctx = WithOrderID(ctx, "1001")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "wh-1", GetWebhookID(ctx))
	assert.Equal(t, "1001", GetOrderID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestL_InjectsCorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithWebhookID(ctx, "wh-1")
	ctx = WithOrderID(ctx, "1001")

	L(ctx).With(zap.String("component", "test")).Info("processed")

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "wh-1", fields["webhook_id"])
	assert.Equal(t, "1001", fields["order_id"])
	assert.Equal(t, "test", fields["component"])
	assert.NotContains(t, fields, "trace_id")
}

func TestL_InjectsTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	WithLogger(ctx, zap.New(core)).Warn("traced")

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
}

func TestL_NoLoggerIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Error("dropped")
		WithLogger(context.Background(), nil).With(zap.Int("n", 1)).Info("dropped")
	})
}
