package database

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metrics keeps lightweight counters over executed queries.
type Metrics struct {
	mu             sync.Mutex
	logger         *zap.Logger
	queryCount     int64
	errorCount     int64
	slowQueryCount int64
	totalDuration  time.Duration
}

// MetricsSnapshot is an immutable view of the counters.
type MetricsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
}

// NewMetrics creates a metrics recorder.
func NewMetrics(logger *zap.Logger) *Metrics {
	return &Metrics{logger: logger}
}

// RecordQuery accumulates counters for one executed statement.
func (m *Metrics) RecordQuery(kind string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCount++
	m.totalDuration += duration
	if err != nil {
		m.errorCount++
	}
	if duration > 100*time.Millisecond {
		m.slowQueryCount++
	}
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := &MetricsSnapshot{
		QueryCount:     m.queryCount,
		ErrorCount:     m.errorCount,
		SlowQueryCount: m.slowQueryCount,
	}
	if m.queryCount > 0 {
		snapshot.AvgQueryDuration = m.totalDuration / time.Duration(m.queryCount)
	}
	return snapshot
}
