// Package gateway serves one client session over HTTP, with the route guards
// applied as middleware.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"yallapost/internal/app"
	"yallapost/internal/config"
)

type contextKey string

const loggerContextKey = contextKey("logger")

type Server struct {
	Logger *slog.Logger
	Config *config.Config
	App    *app.App

	server *http.Server
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLogger(ctx context.Context) *slog.Logger {
	return ctx.Value(loggerContextKey).(*slog.Logger)
}

func sameOrigin(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("Starting gateway", "addr", s.server.Addr)

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

// Handler is the full middleware chain, available after Init.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Init(context.Context) error {
	s.Logger = s.Logger.With("component", "gateway.Server")

	r := chi.NewMux()

	r.Use(
		// json content type
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		},

		// request scoped logger and notifications
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger := s.Logger.With("method", r.Method, "path", r.URL.Path)
				ctx := context.WithValue(r.Context(), loggerContextKey, logger)
				ctx = withNotifications(ctx)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		},

		// Logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

				next.ServeHTTP(sw, r)

				requestLogger(r.Context()).Info("request", "duration", time.Since(start), "status", sw.status)
			})
		},

		// browsers attach Origin to cross-site requests, foreign ones are refused
		func(next http.Handler) http.Handler {
			origins := s.Config.Origins()

			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				origin := r.Header.Get("Origin")
				if origin != "" && !slices.Contains(origins, origin) && !sameOrigin(r, origin) {
					requestLogger(r.Context()).Warn("foreign origin refused", "origin", origin)
					writeJSON(w, http.StatusForbidden, response{Error: "origin not allowed"})
					return
				}
				next.ServeHTTP(w, r)
			})
		},

		// Recovering panics and logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if err := recover(); err != nil {
						requestLogger(r.Context()).Error("panic recovered", "error", err)
						http.Error(w, `{"error": "Internal Server Error"}`, http.StatusInternalServerError)
					}
				}()
				next.ServeHTTP(w, r)
			})
		},
	)

	s.routes(r)

	handler := cors.New(cors.Options{
		AllowedOrigins:   s.Config.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(r)

	s.server = &http.Server{
		Handler:           handler,
		Addr:              s.Config.ListenAddr,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:       time.Minute,
	}
	return nil
}
