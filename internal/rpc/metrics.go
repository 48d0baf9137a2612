// internal/rpc/metrics.go
package rpc

import (
	"sync"
	"time"
)

const latencyWindow = 10

// MetricsSnapshot is a point-in-time copy of the client's aggregate counters.
type MetricsSnapshot struct {
	TotalRequests      uint64
	SuccessfulRequests uint64
	FailedRequests     uint64
	AverageLatency     time.Duration
	LastError          string
	StartedAt          time.Time
	Uptime             time.Duration
}

// performanceMetrics accumulates per-attempt counters for the whole client.
// The latency average is a sliding window over recent successful attempts.
// Counters only reset with the process.
type performanceMetrics struct {
	mu        sync.Mutex
	total     uint64
	succeeded uint64
	failed    uint64
	latencies []time.Duration
	lastError string
	startedAt time.Time
	now       func() time.Time
}

func newPerformanceMetrics(now func() time.Time) *performanceMetrics {
	if now == nil {
		now = time.Now
	}
	return &performanceMetrics{
		latencies: make([]time.Duration, 0, latencyWindow),
		startedAt: now(),
		now:       now,
	}
}

func (m *performanceMetrics) recordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.succeeded++
	m.latencies = append(m.latencies, latency)
	if len(m.latencies) > latencyWindow {
		m.latencies = m.latencies[1:]
	}
}

func (m *performanceMetrics) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.failed++
	if err != nil {
		m.lastError = err.Error()
	}
}

func (m *performanceMetrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if len(m.latencies) > 0 {
		var total time.Duration
		for _, d := range m.latencies {
			total += d
		}
		avg = total / time.Duration(len(m.latencies))
	}

	return MetricsSnapshot{
		TotalRequests:      m.total,
		SuccessfulRequests: m.succeeded,
		FailedRequests:     m.failed,
		AverageLatency:     avg,
		LastError:          m.lastError,
		StartedAt:          m.startedAt,
		Uptime:             m.now().Sub(m.startedAt),
	}
}
