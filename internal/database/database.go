package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"helpinghands/internal/config"
)

// Open creates the database manager, waits for the server to accept
// connections and applies pending migrations.
func Open(cfg *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var manager *Manager
	connect := func() error {
		m, err := NewManager(cfg, logger)
		if err != nil {
			return err
		}
		manager = m
		return nil
	}

	if err := retry(cfg.HealthTimeout, connect, logger, "Database connection attempt failed"); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if cfg.AutoMigrate {
		migrationsPath := determineMigrationsPath(cfg.MigrationsPath)
		logger.Info("Running database migrations", zap.String("path", migrationsPath))

		migrateOnce := func() error { return manager.Migrate(migrationsPath) }
		if err := retry(cfg.HealthTimeout, migrateOnce, logger, "Migration attempt failed"); err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HealthTimeout)
	defer cancel()

	if err := WaitForHealthy(ctx, manager, logger); err != nil {
		manager.Close()
		return nil, fmt.Errorf("database failed to become healthy: %w", err)
	}

	return manager, nil
}

// WaitForHealthy polls the health check with exponential backoff until it
// passes or ctx is done.
func WaitForHealthy(ctx context.Context, manager *Manager, logger *zap.Logger) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	return backoff.RetryNotify(
		func() error {
			status := manager.Health(ctx)
			if !status.IsHealthy() {
				return fmt.Errorf("database %s: %v", status.Status, status.Errors)
			}
			logger.Info("Database is healthy", zap.Duration("response_time", status.ResponseTime))
			return nil
		},
		b,
		func(err error, d time.Duration) {
			logger.Debug("Database not healthy yet, retrying",
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
}

func retry(maxElapsed time.Duration, op func() error, logger *zap.Logger, msg string) error {
	b := backoff.NewExponentialBackOff()
	if maxElapsed > 0 {
		b.MaxElapsedTime = maxElapsed
	}

	return backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		logger.Warn(msg, zap.Error(err), zap.Duration("retry_in", d))
	})
}

func determineMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	paths := []string{
		"./migrations",
		"../migrations",
		"../../migrations",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./migrations"
}
