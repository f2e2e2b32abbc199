package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/skuswap/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the service schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDatabase(context.Background(), &config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           ":memory:",
		ConnectRetries: 1,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

// newMockDB opens a GORM handle on the postgres dialect backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}
