package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/invoice-dashboard/auth"
	"github.com/diewo77/invoice-dashboard/internal/config"
	"github.com/diewo77/invoice-dashboard/internal/db"
	"github.com/diewo77/invoice-dashboard/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs before it runs.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "server",
		Short:         "Invoice dashboard web server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = config.Load()
			l, err := logger.Setup(e.cfg.Log)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			e.log = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations if enabled and start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), e)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Run DB migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				gdb, err := db.Connect(e.cfg.Database, logger.WithComponent(e.log, "db"))
				if err != nil {
					return err
				}
				defer closeDB(gdb)
				if err := db.Migrate(cmd.Context(), gdb); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				e.log.Info().Msg("migrations completed successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the sample user, customers and invoices and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				gdb, err := db.Connect(e.cfg.Database, logger.WithComponent(e.log, "db"))
				if err != nil {
					return err
				}
				defer closeDB(gdb)
				if err := db.Seed(cmd.Context(), gdb); err != nil {
					return fmt.Errorf("seeding failed: %w", err)
				}
				e.log.Info().Msg("seeding completed successfully")
				return nil
			},
		},
	)
	return root
}

func serve(ctx context.Context, e *env) error {
	cfg, log := e.cfg, e.log

	gdb, err := db.Connect(cfg.Database, logger.WithComponent(log, "db"))
	if err != nil {
		return err
	}
	defer closeDB(gdb)

	if cfg.App.Migrations {
		if err := db.Migrate(ctx, gdb); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info().Msg("migrations completed")
	}
	if cfg.App.Seed {
		if err := db.Seed(ctx, gdb); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	if cfg.Session.Secret == "" {
		log.Warn().Msg("SESSION_SECRET not set, using the development secret")
	}
	auth.SetSecret(cfg.Session.Secret)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(gdb, cfg, logger.WithComponent(log, "http")),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
		log.Info().Msg("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
