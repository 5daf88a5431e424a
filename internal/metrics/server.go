package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yallapost/internal/app"
	"yallapost/internal/config"
)

// Server exposes /metrics and /health.
type Server struct {
	Logger *slog.Logger
	Config *config.Config
	App    *app.App

	server *http.Server
}

func (s *Server) Init(context.Context) error {
	s.Logger = s.Logger.With("component", "metrics.Server")

	r := chi.NewMux()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.App.HealthCheck(r.Context()); err != nil {
			s.Logger.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	s.server = &http.Server{
		Handler:           r,
		Addr:              s.Config.MetricsAddr,
		ReadHeaderTimeout: time.Second,
	}
	return nil
}

// Handler is the router of the server, available after Init.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("Starting metrics server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
