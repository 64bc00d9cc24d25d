// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Log      LogConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds PostgreSQL connection settings.
// URLOverride, when set (DATABASE_URL), replaces the individual fields.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	URLOverride string
	Debug       bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
	// Timezone is the location used to compute invoice dates.
	Timezone string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Secret string
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	if d.URLOverride != "" {
		return d.URLOverride
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "dashboard"),
			Password:    getEnv("DB_PASSWORD", "dashboard"),
			DBName:      getEnv("DB_NAME", "dashboard"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			URLOverride: strings.TrimSpace(os.Getenv("DATABASE_URL")),
			Debug:       getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", false),
			Migrations: getEnvBool("MIGRATIONS", true),
			Seed:       getEnvBool("DB_SEED", false),
			Timezone:   getEnv("APP_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
