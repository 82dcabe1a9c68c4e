package database

import (
	"sync/atomic"
	"time"
)

// Metrics counts queries issued through the repositories
type Metrics struct {
	queryCount     int64
	errorCount     int64
	slowQueryCount int64
	totalDuration  int64 // nanoseconds
	txCount        int64
	rollbackCount  int64

	slowQueryThreshold time.Duration
}

// MetricsSnapshot provides a point-in-time view of metrics
type MetricsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	TransactionCount int64         `json:"transaction_count"`
	RollbackCount    int64         `json:"rollback_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
}

// NewMetrics creates a collector. A zero threshold disables slow query counting.
func NewMetrics(slowQueryThreshold time.Duration) *Metrics {
	return &Metrics{slowQueryThreshold: slowQueryThreshold}
}

// RecordQuery records one statement. It reports whether the query was slow.
func (m *Metrics) RecordQuery(duration time.Duration, err error) bool {
	if m == nil {
		return false
	}

	atomic.AddInt64(&m.queryCount, 1)
	atomic.AddInt64(&m.totalDuration, int64(duration))
	if err != nil {
		atomic.AddInt64(&m.errorCount, 1)
	}

	if m.slowQueryThreshold > 0 && duration > m.slowQueryThreshold {
		atomic.AddInt64(&m.slowQueryCount, 1)
		return true
	}
	return false
}

// RecordTransaction records the outcome of a transaction
func (m *Metrics) RecordTransaction(committed bool) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.txCount, 1)
	if !committed {
		atomic.AddInt64(&m.rollbackCount, 1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}

	count := atomic.LoadInt64(&m.queryCount)
	snap := MetricsSnapshot{
		QueryCount:       count,
		ErrorCount:       atomic.LoadInt64(&m.errorCount),
		SlowQueryCount:   atomic.LoadInt64(&m.slowQueryCount),
		TransactionCount: atomic.LoadInt64(&m.txCount),
		RollbackCount:    atomic.LoadInt64(&m.rollbackCount),
	}
	if count > 0 {
		snap.AvgQueryDuration = time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
	}
	return snap
}
