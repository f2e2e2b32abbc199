package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/skuswap/backend/internal/infrastructure/config"
	"github.com/skuswap/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Option configures database construction
type Option func(*options)

type options struct {
	gormLogger gormlogger.Interface
	logger     *zap.Logger
}

// WithGormLogger sets the GORM logger
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *options) {
		o.gormLogger = l
	}
}

// WithLogger sets the logger used to report connection attempts
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewDatabase opens the configured database, retrying failed connections
// up to cfg.ConnectRetries times with cfg.ConnectDelay between attempts.
// Cancelling ctx stops the retries, including during a delay.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := &options{
		gormLogger: gormlogger.Default.LogMode(gormlogger.Silent),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	db, err := backoff.Retry(ctx, func() (*Database, error) {
		attempt++
		d, err := dialector(cfg)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		db, err := open(d, cfg, o.gormLogger)
		if err != nil {
			o.logger.Warn("Database connection failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
			return nil, err
		}
		return db, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.ConnectDelay)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		if attempt > 1 {
			o.logger.Info("Database connection established", zap.Int("attempt", attempt))
		}
		return db, nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("database connect aborted: %w", context.Cause(ctx))
	case attempt < attempts:
		return nil, err
	default:
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
	}
}

// dialector returns the GORM dialector for the configured driver
func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func open(d gorm.Dialector, cfg *config.DatabaseConfig, l gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// A single connection keeps ":memory:" databases shared across queries
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// AutoMigrate creates or updates the service tables from the GORM models.
// PostgreSQL deployments use the SQL migrations instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(&models.SkuMappingModel{}, &models.ProcessingLogModel{})
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
