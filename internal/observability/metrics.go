package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates resolution counters per service operation.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	ambiguous     atomic.Int64
	candidates    atomic.Int64

	operations map[string]*OperationMetrics
	errorCodes map[string]int64

	// Last durations, oldest first.
	durations    []time.Duration
	maxDurations int
}

// OperationMetrics holds the counters of one operation.
type OperationMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a metrics collector keeping the last maxDurations durations.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		operations:   make(map[string]*OperationMetrics),
		errorCodes:   make(map[string]int64),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the process wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest counts one call of operation.
func (m *Metrics) RecordRequest(operation string) {
	m.requestTotal.Add(1)
	m.operation(operation).executionCount.Add(1)
}

// RecordFailure counts one failed call of operation with its error code.
func (m *Metrics) RecordFailure(operation, code string) {
	m.requestFailed.Add(1)
	m.operation(operation).errorCount.Add(1)
	if code == "" {
		return
	}
	m.mu.Lock()
	m.errorCodes[code]++
	m.mu.Unlock()
}

// RecordSubRequest counts one call of operation made on behalf of another request. It
// does not add to the request totals.
func (m *Metrics) RecordSubRequest(operation string) {
	m.operation(operation).executionCount.Add(1)
}

// RecordSubFailure is RecordFailure for calls counted with RecordSubRequest.
func (m *Metrics) RecordSubFailure(operation, code string) {
	m.operation(operation).errorCount.Add(1)
	if code == "" {
		return
	}
	m.mu.Lock()
	m.errorCodes[code]++
	m.mu.Unlock()
}

// RecordCandidates counts the candidates of one resolution.
func (m *Metrics) RecordCandidates(n int) {
	m.candidates.Add(int64(n))
	if n > 1 {
		m.ambiguous.Add(1)
	}
}

// RecordDuration records a call duration.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	om := m.operation(operation)
	om.totalDuration.Add(d.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, d)
	m.mu.Unlock()
}

// GetRequestTotal returns the total number of calls.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the number of failed calls.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

// GetAverageDuration returns the average duration in milliseconds for operation.
func (m *Metrics) GetAverageDuration(operation string) int64 {
	om := m.operation(operation)
	count := om.executionCount.Load()
	if count == 0 {
		return 0
	}
	return om.totalDuration.Load() / count
}

// Operations returns the recorded operation names, sorted.
func (m *Metrics) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.operations))
	for name := range m.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Metrics) operation(name string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operations[name]
	if !ok {
		om = &OperationMetrics{}
		m.operations[name] = om
	}
	return om
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.ambiguous.Store(0)
	m.candidates.Store(0)

	m.mu.Lock()
	m.operations = make(map[string]*OperationMetrics)
	m.errorCodes = make(map[string]int64)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]*OperationSnapshot, len(m.operations))
	for name, om := range m.operations {
		count := om.executionCount.Load()
		total := om.totalDuration.Load()
		snap := &OperationSnapshot{
			ExecutionCount: count,
			TotalDuration:  total,
			ErrorCount:     om.errorCount.Load(),
		}
		if count > 0 {
			snap.AverageDuration = total / count
		}
		ops[name] = snap
	}
	codes := make(map[string]int64, len(m.errorCodes))
	for code, n := range m.errorCodes {
		codes[code] = n
	}

	var p95 time.Duration
	if n := len(m.durations); n > 0 {
		sorted := append([]time.Duration(nil), m.durations...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		p95 = sorted[(n*95-1)/100]
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Ambiguous:     m.ambiguous.Load(),
		Candidates:    m.candidates.Load(),
		Operations:    ops,
		ErrorCodes:    codes,
		DurationCount: len(m.durations),
		P95Duration:   p95,
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                         `json:"requestTotal"`
	RequestFailed int64                         `json:"requestFailed"`
	Ambiguous     int64                         `json:"ambiguous"`
	Candidates    int64                         `json:"candidates"`
	Operations    map[string]*OperationSnapshot `json:"operations"`
	ErrorCodes    map[string]int64              `json:"errorCodes"`
	DurationCount int                           `json:"durationCount"`
	P95Duration   time.Duration                 `json:"p95DurationNs"`
}

// OperationSnapshot is a copy of one operation's counters.
type OperationSnapshot struct {
	ExecutionCount  int64 `json:"executionCount"`
	TotalDuration   int64 `json:"totalDurationMs"`
	ErrorCount      int64 `json:"errorCount"`
	AverageDuration int64 `json:"averageDurationMs"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
