// Package server exposes the wizard as a JSON HTTP API with one controller per
// client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbxark/formwizard/assist"
	"github.com/tbxark/formwizard/form"
)

const shutdownTimeout = 5 * time.Second

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAssistant enables POST /api/wizard/assist.
func WithAssistant(a *assist.Assistant) Option {
	return func(s *Server) { s.assistant = a }
}

// WithGatherer exposes the registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

type Server struct {
	sessions  *Sessions
	assistant *assist.Assistant
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	schema    string
}

func New(factory ControllerFactory, opts ...Option) (*Server, error) {
	if factory == nil {
		return nil, errors.New("controller factory is required")
	}
	schema, err := form.JSONSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		sessions: NewSessions(factory),
		logger:   slog.Default(),
		schema:   schema,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// RegisterRoutes adds every route to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/wizard", s.handleState)
	mux.HandleFunc("PATCH /api/wizard", s.handlePatch)
	mux.HandleFunc("PUT /api/wizard/fields/{key}", s.handleSetField)
	mux.HandleFunc("POST /api/wizard/prefill", s.handlePrefill)
	mux.HandleFunc("POST /api/wizard/next", s.handleNext)
	mux.HandleFunc("POST /api/wizard/previous", s.handlePrevious)
	mux.HandleFunc("POST /api/wizard/steps/{step}", s.handleGoToStep)
	mux.HandleFunc("GET /api/wizard/steps/{step}/validation", s.handleValidation)
	mux.HandleFunc("POST /api/wizard/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/wizard/reset", s.handleReset)
	mux.HandleFunc("POST /api/wizard/assist", s.handleAssist)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the routes wrapped in logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.recoverer(s.logRequests(mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return <-errCh
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("Panic in HTTP handler", "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
