package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"helpinghands/internal/database"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// BaseRepository provides common database operations with query logging
type BaseRepository struct {
	q       querier
	logger  *zap.Logger
	metrics *database.Metrics
}

// NewBaseRepository creates a base repository over q
func NewBaseRepository(q querier, metrics *database.Metrics, logger *zap.Logger) *BaseRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseRepository{
		q:       q,
		logger:  logger,
		metrics: metrics,
	}
}

// ===============================
// CORE DATABASE OPERATIONS
// ===============================

// ExecContext executes a statement with logging and metrics
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.q.ExecContext(ctx, query, args...)
	r.observe("exec", query, time.Since(start), err)
	return result, err
}

// QueryContext executes a query that returns rows
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.q.QueryContext(ctx, query, args...)
	r.observe("query", query, time.Since(start), err)
	return rows, err
}

// QueryRowContext executes a query that returns a single row
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := r.q.QueryRowContext(ctx, query, args...)
	r.observe("query_row", query, time.Since(start), row.Err())
	return row
}

func (r *BaseRepository) observe(kind, query string, duration time.Duration, err error) {
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		err = nil
	}

	if r.metrics.RecordQuery(duration, err) {
		r.logger.Warn("Slow query detected",
			zap.String("type", kind),
			zap.String("query", database.TruncateQuery(query)),
			zap.Duration("duration", duration),
		)
	}

	if err != nil {
		r.logger.Error("Query execution failed",
			zap.String("type", kind),
			zap.String("query", database.TruncateQuery(query)),
			zap.Error(err),
		)
	}
}

// ===============================
// TRANSACTION HELPERS
// ===============================

// withTransaction runs fn inside a transaction on db, rolling back on error
// or panic.
func withTransaction(ctx context.Context, db *sql.DB, metrics *database.Metrics, logger *zap.Logger, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			metrics.RecordTransaction(false)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err),
			)
		}
		metrics.RecordTransaction(false)
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordTransaction(false)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.RecordTransaction(true)
	return nil
}

// ===============================
// UTILITY METHODS
// ===============================

// IsNotFound checks if error is a "not found" error
func (r *BaseRepository) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// mapError converts driver errors into repository sentinels
func (r *BaseRepository) mapError(err error) error {
	if err == nil {
		return nil
	}
	if r.IsNotFound(err) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "22003": // numeric_value_out_of_range
			return fmt.Errorf("%w: %s", ErrOutOfRange, pqErr.Message)
		}
	}
	return err
}

// requireAffected returns notFound when the statement touched no rows
func (r *BaseRepository) requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// GetLogger returns the logger instance
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
