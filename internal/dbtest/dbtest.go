// Package dbtest opens the shared integration-test database. Tests that need
// postgres call Open and are skipped when it is unreachable.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"booking_service/internal/config"
	"booking_service/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	once    sync.Once
	shared  *gorm.DB
	openErr error
)

func dsn() string {
	if v := os.Getenv("TEST_DB_CONN_STR"); v != "" {
		return v
	}
	return config.DefaultDBConnStr
}

// Open returns a migrated database handle or skips the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		shared, openErr = database.Open(ctx, dsn(), database.Options{
			MaxOpenConns: 50,
			LogLevel:     logger.Silent,
		})
		if openErr != nil {
			return
		}
		openErr = database.Migrate(dsn())
	})

	if openErr != nil {
		t.Skipf("Database connection not initialized: %v", openErr)
	}
	return shared
}
