package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64            `json:"total_requests"`
	SuccessRate   float64          `json:"success_rate"`
	ErrorCount    int64            `json:"error_count"`
	Ambiguous     int64            `json:"ambiguous"`
	Candidates    int64            `json:"candidates"`
	P95LatencyMs  int64            `json:"p95_latency_ms"`
	AvgLatencyMs  map[string]int64 `json:"avg_latency_ms"`
	ErrorCodes    map[string]int64 `json:"error_codes"`
}

// GetMetricsOverview returns the in-process counters since startup.
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snap := s.Metrics.Snapshot()
	avg := make(map[string]int64, len(snap.Operations))
	for name, op := range snap.Operations {
		avg[name] = op.AverageDuration
	}
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snap.RequestTotal,
		SuccessRate:   snap.SuccessRate(),
		ErrorCount:    snap.RequestFailed,
		Ambiguous:     snap.Ambiguous,
		Candidates:    snap.Candidates,
		P95LatencyMs:  snap.P95Duration.Milliseconds(),
		AvgLatencyMs:  avg,
		ErrorCodes:    snap.ErrorCodes,
	})
}
