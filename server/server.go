package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/timexkit/internal/observability"
	"github.com/hrygo/timexkit/internal/profile"
	apiv1 "github.com/hrygo/timexkit/server/router/api/v1"
	"github.com/hrygo/timexkit/server/service/resolve"
	"github.com/hrygo/timexkit/store"
)

// Server hosts the HTTP API of the resolution service.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Service *resolve.Service

	echoServer *echo.Echo
	listener   net.Listener
	logger     *slog.Logger
}

// NewServer wires the service and routes. st may be nil when history is disabled.
func NewServer(_ context.Context, profile *profile.Profile, st *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := observability.GlobalMetrics()
	opts := []resolve.Option{resolve.WithLogger(logger), resolve.WithMetrics(metrics)}
	if st != nil {
		opts = append(opts, resolve.WithStore(st))
		logger.Info("resolution history enabled", "driver", st.GetDriver().Type())
	}
	svc, err := resolve.NewService(profile, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolve service")
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())

	s := &Server{
		Profile:    profile,
		Store:      st,
		Service:    svc,
		echoServer: echoServer,
		logger:     logger,
	}
	apiv1.NewAPIV1Service(profile, svc, metrics, logger).RegisterRoutes(echoServer)
	return s, nil
}

// Start listens on the profile address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("failed to start echo server", "error", err)
		}
	}()
	s.logger.Info("timexkit server started", "addr", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests, waits for in-flight ones, and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", "error", err)
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.logger.Error("failed to close store", "error", err)
		}
	}
	s.logger.Info("timexkit server stopped")
}
