package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Queries slower than this are flagged on their span
	DBSystem        string        // "postgresql" or "sqlite"
}

// DBSystemForDriver maps a configured driver to its semantic-convention name
func DBSystemForDriver(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

type dbContextKey struct{}

// queryStartKey holds the start time of the current statement
var queryStartKey = dbContextKey{}

// gormOperations lists the callback processors a plugin hooks into
var gormOperations = []string{"create", "query", "update", "delete", "row", "raw"}

// RegisterDBTracing registers otelgorm on db plus a callback that flags slow
// queries and marks failed statements on their span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}

	after := slowQueryCallback(cfg.SlowQueryThresh)
	for _, op := range gormOperations {
		if err := registerAround(db, op, "otel_timing", markQueryStart, after); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

// registerAround registers before/after callbacks around the gorm processor for op
func registerAround(db *gorm.DB, op, prefix string, before, after func(*gorm.DB)) error {
	target := "gorm:" + op
	cb := db.Callback()

	var err error
	switch op {
	case "create":
		err = errors.Join(
			cb.Create().Before(target).Register(prefix+":before_"+op, before),
			cb.Create().After(target).Register(prefix+":after_"+op, after),
		)
	case "query":
		err = errors.Join(
			cb.Query().Before(target).Register(prefix+":before_"+op, before),
			cb.Query().After(target).Register(prefix+":after_"+op, after),
		)
	case "update":
		err = errors.Join(
			cb.Update().Before(target).Register(prefix+":before_"+op, before),
			cb.Update().After(target).Register(prefix+":after_"+op, after),
		)
	case "delete":
		err = errors.Join(
			cb.Delete().Before(target).Register(prefix+":before_"+op, before),
			cb.Delete().After(target).Register(prefix+":after_"+op, after),
		)
	case "row":
		err = errors.Join(
			cb.Row().Before(target).Register(prefix+":before_"+op, before),
			cb.Row().After(target).Register(prefix+":after_"+op, after),
		)
	case "raw":
		err = errors.Join(
			cb.Raw().Before(target).Register(prefix+":before_"+op, before),
			cb.Raw().After(target).Register(prefix+":after_"+op, after),
		)
	default:
		err = fmt.Errorf("unknown gorm operation %q", op)
	}
	if err != nil {
		return fmt.Errorf("failed to register %s callbacks for %s: %w", prefix, op, err)
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		if elapsed, ok := queryElapsed(ctx); ok && elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", threshold.Milliseconds()),
			))
		}
	}
}

// =============================================================================
// Database metrics
// =============================================================================

// DBMetrics records query counts and latency plus connection pool gauges
type DBMetrics struct {
	queryTotal    *Counter
	queryDuration *Histogram
	registration  metric.Registration
}

// RegisterDBMetrics instruments db with query metrics and observes pool
// statistics from sqlDB on every collection.
func RegisterDBMetrics(db *gorm.DB, sqlDB *sql.DB, meter metric.Meter) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	queryTotal, err := NewCounter(meter, "db_query_total", "Total number of database queries by operation", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	m := &DBMetrics{queryTotal: queryTotal, queryDuration: queryDuration}

	for _, op := range gormOperations {
		if err := registerAround(db, op, "db_metrics", markQueryStart, m.after(op)); err != nil {
			return nil, err
		}
	}

	if sqlDB != nil {
		if m.registration, err = observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *DBMetrics) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		status := "ok"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}
		attrs := []attribute.KeyValue{
			AttrOperation.String(op),
			AttrDBTable.String(db.Statement.Table),
			AttrStatus.String(status),
		}
		m.queryTotal.Inc(ctx, attrs...)
		if elapsed, ok := queryElapsed(ctx); ok {
			m.queryDuration.RecordDuration(ctx, elapsed, attrs...)
		}
	}
}

func observePool(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxOpen)
}

// Stop unregisters the pool observer
func (m *DBMetrics) Stop() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
