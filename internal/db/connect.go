// Package db opens the database, applies migrations and seeds sample data.
package db

import (
	"fmt"
	"time"

	"github.com/diewo77/invoice-dashboard/internal/config"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Connect opens the PostgreSQL pool described by cfg, retrying while the server starts up.
func Connect(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Str("user", cfg.User).
		Bool("url_override", cfg.URLOverride != "").
		Msg("connecting to database")

	var gdb *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		gdb, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Msg("database connection failed, retrying")
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after %d attempts: %w", connectAttempts, err)
	}
	if err := pingOrClose(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// pingOrClose closes the pool when gdb cannot answer a ping.
func pingOrClose(gdb *gorm.DB) error {
	err := Ping(gdb)
	if err == nil {
		return nil
	}
	if sqlDB, derr := gdb.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	return err
}

// Ping runs a trivial statement to verify connectivity.
func Ping(gdb *gorm.DB) error {
	if err := gdb.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}
