package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestDBSystemForDriver(t *testing.T) {
	assert.Equal(t, "sqlite", DBSystemForDriver("sqlite"))
	assert.Equal(t, "postgresql", DBSystemForDriver("postgres"))
	assert.Equal(t, "postgresql", DBSystemForDriver(""))
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
}

func TestRegisterDBTracing_SlowQueryAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 0,
		DBSystem:        "sqlite",
	}, zap.NewNop()))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	require.Error(t, db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error)
	parent.End()

	var slow, failed, table bool
	for _, span := range recorder.Ended() {
		if span.Name() == "parent" {
			continue
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				slow = true
			}
			if kv == attribute.String("db.sql.table", "widgets") {
				table = true
			}
		}
		if span.Status().Code == codes.Error {
			failed = true
		}
	}
	assert.True(t, slow)
	assert.True(t, failed)
	assert.True(t, table)
}

func TestRegisterDBMetrics(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := RegisterDBMetrics(db, sqlDB, provider.Meter("test"))
	require.NoError(t, err)
	defer func() { assert.NoError(t, m.Stop()) }()

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var out []widget
	require.NoError(t, db.WithContext(ctx).Find(&out).Error)
	var missing widget
	err = db.WithContext(ctx).First(&missing, 999).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]bool{}
	var queries int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			found[metric.Name] = true
			if metric.Name == "db_query_total" {
				for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
					queries += dp.Value
				}
			}
		}
	}
	assert.True(t, found["db_query_total"])
	assert.True(t, found["db_query_duration_seconds"])
	assert.True(t, found["db_pool_connections"])
	assert.True(t, found["db_pool_connections_max"])
	assert.Equal(t, int64(3), queries)
}

func TestRegisterDBMetrics_NilMeter(t *testing.T) {
	_, err := RegisterDBMetrics(setupTestDB(t), nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestQueryElapsed(t *testing.T) {
	_, ok := queryElapsed(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), queryStartKey, time.Now().Add(-time.Second))
	d, ok := queryElapsed(ctx)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, d, time.Second)
}
