package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hrygo/timexkit/internal/observability"
	"github.com/hrygo/timexkit/internal/profile"
	servermw "github.com/hrygo/timexkit/server/middleware"
	"github.com/hrygo/timexkit/server/service/resolve"
)

// HeaderRequestID carries the caller's request ID in and out.
const HeaderRequestID = "X-Request-ID"

type APIV1Service struct {
	Profile *profile.Profile
	Service resolve.TimexService
	Metrics *observability.Metrics

	registry *prometheus.Registry
	limiter  *servermw.RateLimiter
	logger   *slog.Logger
}

func NewAPIV1Service(profile *profile.Profile, service resolve.TimexService, metrics *observability.Metrics, logger *slog.Logger) *APIV1Service {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:  profile,
		Service:  service,
		Metrics:  metrics,
		registry: observability.NewRegistry(metrics),
		limiter:  servermw.NewRateLimiter(profile.RateLimit, profile.RateBurst),
		logger:   logger,
	}
}

// RegisterRoutes mounts the API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
	})
	e.GET("/metrics", echo.WrapHandler(observability.Handler(s.registry)))

	api := e.Group("/api/v1", middleware.CORS(), s.limiter.Middleware())
	api.POST("/timex/resolve", s.ResolveTimex)
	api.POST("/timex/batch", s.BatchResolveTimex)
	api.POST("/timex/normalize", s.NormalizeTimex)
	api.POST("/timex/merge", s.MergeTimex)
	api.GET("/timex/grammar", s.GetGrammar)
	api.GET("/timex/history", s.ListHistory)
	api.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// requestContext attaches a RequestContext for op to the request, reusing the caller's
// X-Request-ID when present, and echoes the ID back.
func (s *APIV1Service) requestContext(c echo.Context, op string) context.Context {
	rc := observability.NewRequestContextWithID(s.logger, c.Request().Header.Get(HeaderRequestID), op, c.RealIP())
	c.Response().Header().Set(HeaderRequestID, rc.RequestID)
	return observability.WithRequestContext(c.Request().Context(), rc)
}
