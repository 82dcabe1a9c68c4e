package database

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordQuery(t *testing.T) {
	m := NewMetrics(50 * time.Millisecond)

	assert.False(t, m.RecordQuery(10*time.Millisecond, nil))
	assert.True(t, m.RecordQuery(80*time.Millisecond, errors.New("boom")))
	m.RecordTransaction(true)
	m.RecordTransaction(false)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.QueryCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, int64(1), snap.SlowQueryCount)
	assert.Equal(t, int64(2), snap.TransactionCount)
	assert.Equal(t, int64(1), snap.RollbackCount)
	assert.Equal(t, 45*time.Millisecond, snap.AvgQueryDuration)
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(time.Millisecond, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Snapshot().QueryCount)
	assert.Equal(t, int64(0), m.Snapshot().SlowQueryCount)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.False(t, m.RecordQuery(time.Second, nil))
	m.RecordTransaction(false)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestTruncateQuery(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, TruncateQuery(short))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	out := TruncateQuery(string(long))
	assert.Len(t, out, 203)
}

func TestHealthStatus(t *testing.T) {
	assert.True(t, (&HealthStatus{Status: StatusDegraded}).IsHealthy())
	assert.False(t, (&HealthStatus{Status: StatusUnhealthy}).IsHealthy())
}
