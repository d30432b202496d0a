// Package server wires the HTTP surface of the lexchat backend.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lexhub/lexchat/internal/profile"
	"github.com/lexhub/lexchat/internal/version"
	"github.com/lexhub/lexchat/metrics"
	apiv1 "github.com/lexhub/lexchat/server/router/api/v1"
	"github.com/lexhub/lexchat/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	exporter   *metrics.Exporter
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Secret:   profile.JWTSecret,
		Profile:  profile,
		Store:    store,
		exporter: metrics.NewExporter(metrics.DefaultConfig()),
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())
	echoServer.Use(s.observe())

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version.String())
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.exporter.Handler()))

	apiService := apiv1.NewAPIV1Service(s.Secret, profile, store)
	apiService.Register(echoServer)

	s.echoServer = echoServer
	if err := store.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", version.String())
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}

// Exporter exposes the metrics registry, mainly for the orchestrator recorder.
func (s *Server) Exporter() *metrics.Exporter {
	return s.exporter
}

// observe records per-request metrics and logs request outcomes.
func (s *Server) observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			latency := time.Since(start)
			s.exporter.RecordHTTPRequest(c.Request().Method, c.Path(), status, latency)

			if status >= http.StatusInternalServerError {
				slog.Error("request failed",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"status", status,
					"latency", latency,
				)
			}
			return nil
		}
	}
}
