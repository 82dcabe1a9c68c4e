package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"helpinghands/internal/config"
)

// Manager owns the connection pool and its query metrics
type Manager struct {
	db      *sql.DB
	logger  *zap.Logger
	metrics *Metrics
	config  *config.DatabaseConfig
	mu      sync.RWMutex
}

// NewManager opens a pooled connection and verifies it with a ping
func NewManager(cfg *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	configureConnectionPool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &Manager{
		db:      db,
		logger:  logger,
		config:  cfg,
		metrics: NewMetrics(cfg.SlowQueryThreshold),
	}

	logger.Info("Database manager initialized",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
	)

	return manager, nil
}

func configureConnectionPool(db *sql.DB, cfg *config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// DB returns the underlying connection pool
func (m *Manager) DB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Metrics returns the query metrics shared with the repositories
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// SlowQueryThreshold is the duration above which queries are logged as slow
func (m *Manager) SlowQueryThreshold() time.Duration {
	return m.config.SlowQueryThreshold
}

// Migrate runs database migrations using a separate connection so the
// migrator cannot close the main pool.
func (m *Manager) Migrate(migrationsPath string) error {
	migrationDB, err := sql.Open("postgres", m.config.URL)
	if err != nil {
		return fmt.Errorf("failed to create migration connection: %w", err)
	}
	defer migrationDB.Close()

	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("migration connection failed: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	currentVersion, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		m.logger.Warn("Database is in dirty state", zap.Uint("version", currentVersion))
		return fmt.Errorf("database is in dirty state at version %d", currentVersion)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.Info("Migrations completed successfully",
		zap.Uint("from_version", currentVersion),
		zap.Uint("to_version", newVersion),
	)

	return nil
}

// Ping checks connectivity
func (m *Manager) Ping(ctx context.Context) error {
	return m.DB().PingContext(ctx)
}

// Health returns a point-in-time health report
func (m *Manager) Health(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{Status: StatusHealthy, CheckedAt: start}

	if err := m.Ping(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Errors = append(status.Errors, err.Error())
	}

	stats := m.Stats()
	status.ResponseTime = time.Since(start)
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle

	if status.Status == StatusHealthy && stats.MaxOpenConnections > 0 &&
		stats.InUse >= stats.MaxOpenConnections {
		status.Status = StatusDegraded
	}

	return status
}

// Stats returns pool statistics
func (m *Manager) Stats() sql.DBStats {
	return m.DB().Stats()
}

// Close closes the connection pool
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		m.logger.Info("Closing database connection")
		err := m.db.Close()
		m.db = nil
		return err
	}

	return nil
}

// TruncateQuery shortens long queries for logging
func TruncateQuery(query string) string {
	const maxLength = 200
	if len(query) <= maxLength {
		return query
	}
	return query[:maxLength] + "..."
}
