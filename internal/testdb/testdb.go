// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/invoice-dashboard/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database unique to t with the schema applied and foreign keys enforced.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Seeded is Open followed by db.Seed.
func Seeded(t testing.TB) *gorm.DB {
	t.Helper()
	gdb := Open(t)
	if err := db.Seed(context.Background(), gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return gdb
}
