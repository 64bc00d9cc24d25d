package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

//go:embed schema/sqlite.sql
var sqliteSchema string

// Migrate brings the schema up to date. PostgreSQL goes through golang-migrate with the
// embedded migrations; SQLite (tests, local runs) applies the equivalent idempotent DDL.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	switch name := gdb.Dialector.Name(); name {
	case "postgres":
		return migratePostgres(ctx, gdb)
	case "sqlite":
		return migrateSQLite(ctx, gdb)
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", name)
	}
}

func migratePostgres(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate: acquire connection: %w", err)
	}
	driver, err := pgmigrate.WithConnection(ctx, conn, &pgmigrate.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrate: postgres driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate: source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	// Close releases the dedicated connection; the pool itself stays open.
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

func migrateSQLite(ctx context.Context, gdb *gorm.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: sqlite: %w", err)
		}
	}
	return nil
}

// Tables lists the tables every schema must provide.
var Tables = []string{"users", "customers", "invoices"}

// CheckSchema reports the first required table that is missing.
func CheckSchema(gdb *gorm.DB) error {
	for _, table := range Tables {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}
