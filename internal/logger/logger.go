// Package logger configures the zerolog logger shared by the server and the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/diewo77/invoice-dashboard/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger from cfg and returns it.
// Unknown formats fall back to console output.
func Setup(cfg config.LogConfig) (zerolog.Logger, error) {
	return SetupWriter(cfg, os.Stdout)
}

// SetupWriter is Setup with an explicit output.
func SetupWriter(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), err
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.ToLower(cfg.Format) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger, nil
}

// WithComponent returns a logger with a component field.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
