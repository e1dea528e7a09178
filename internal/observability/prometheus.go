package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timexkit"

// Collector exports a Metrics instance to Prometheus.
type Collector struct {
	metrics *Metrics

	requests   *prometheus.Desc
	failures   *prometheus.Desc
	duration   *prometheus.Desc
	errorCodes *prometheus.Desc
	ambiguous  *prometheus.Desc
	candidates *prometheus.Desc
}

// NewCollector creates a collector reading from m.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		metrics: m,
		requests: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "requests_total"),
			"Service calls by operation.", []string{"operation"}, nil),
		failures: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "request_failures_total"),
			"Failed service calls by operation.", []string{"operation"}, nil),
		duration: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "request_duration_ms_total"),
			"Accumulated call duration in milliseconds by operation.", []string{"operation"}, nil),
		errorCodes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "errors_total"),
			"Resolution errors by error code.", []string{"code"}, nil),
		ambiguous: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "ambiguous_total"),
			"Resolutions that produced more than one candidate.", nil, nil),
		candidates: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "candidates_total"),
			"Candidates produced by all resolutions.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.failures
	ch <- c.duration
	ch <- c.errorCodes
	ch <- c.ambiguous
	ch <- c.candidates
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()
	for name, op := range snap.Operations {
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(op.ExecutionCount), name)
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(op.ErrorCount), name)
		ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, float64(op.TotalDuration), name)
	}
	for code, n := range snap.ErrorCodes {
		ch <- prometheus.MustNewConstMetric(c.errorCodes, prometheus.CounterValue, float64(n), code)
	}
	ch <- prometheus.MustNewConstMetric(c.ambiguous, prometheus.CounterValue, float64(snap.Ambiguous))
	ch <- prometheus.MustNewConstMetric(c.candidates, prometheus.CounterValue, float64(snap.Candidates))
}

// NewRegistry returns a registry with the process and Go collectors and one Collector
// for m.
func NewRegistry(m *Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
		NewCollector(m),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
