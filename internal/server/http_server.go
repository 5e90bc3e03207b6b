// Package server hosts the HTTP surface: router setup, the registrar
// pattern for per-service routes, and the optional-identity middleware.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oggyb/confide/internal/config"
	apperrors "github.com/oggyb/confide/internal/errors"
)

// Registrar lets each service mount its own routes, keeping the transport
// layer out of service packages' business logic.
type Registrar interface {
	Register(r chi.Router)
}

// HTTPServer wraps the chi router and the net/http server lifecycle.
type HTTPServer struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the router, mounts shared middleware and every registrar's
// routes under /api, and returns an unstarted server.
func New(cfg *config.Config, logger *slog.Logger, registrars ...Registrar) *HTTPServer {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(OptionalAuth(cfg.Auth.JWTSecret))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		for _, reg := range registrars {
			reg.Register(api)
		}
	})

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	return &HTTPServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"took", time.Since(start),
			)
		})
	}
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with the status mapped from the domain
// error.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperrors.HTTPStatus(err), map[string]string{"error": err.Error()})
}

// DecodeJSON parses the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
