package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/skuswap/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(context.Background(), &config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           ":memory:",
		ConnectRetries: 3,
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AutoMigrate())
	assert.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	assert.True(t, db.DB.Migrator().HasTable("sku_mappings"))
	assert.True(t, db.DB.Migrator().HasTable("processing_logs"))
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(context.Background(), &config.DatabaseConfig{Driver: "oracle", ConnectRetries: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewDatabase_RetriesThenFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := &config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           "/nonexistent-dir/skuswap/db.sqlite",
		ConnectRetries: 3,
		ConnectDelay:   10 * time.Millisecond,
	}

	_, err := NewDatabase(context.Background(), cfg, WithLogger(zap.New(core)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	failures := logs.FilterMessage("Database connection failed").All()
	require.Len(t, failures, 3)
	assert.Equal(t, int64(3), failures[2].ContextMap()["attempt"])
}

func TestNewDatabase_ContextCancelledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	core, logs := observer.New(zap.WarnLevel)
	_, err := NewDatabase(ctx, &config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           "/nonexistent-dir/skuswap/db.sqlite",
		ConnectRetries: 5,
	}, WithLogger(zap.New(core)))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, logs.FilterMessage("Database connection failed").Len())
}

func TestNewDatabase_CancelInterruptsConnectDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := NewDatabase(ctx, &config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           "/nonexistent-dir/skuswap/db.sqlite",
		ConnectRetries: 5,
		ConnectDelay:   10 * time.Second,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "database connect aborted")
	assert.Less(t, time.Since(start), 2*time.Second)
}
