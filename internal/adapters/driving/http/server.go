// Package http serves the read-mostly JSON dashboard over chi.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/behole/scribble/internal/adapters/driven/artifact"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
)

// ErrMissingLibraryService is returned when the library port is nil.
var ErrMissingLibraryService = errors.New("http: library service is required")

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Deps holds what the router needs.
type Deps struct {
	Library driving.LibraryService

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Server is the dashboard HTTP server.
type Server struct {
	addr     string
	deps     Deps
	renderer *artifact.Renderer
	handler  http.Handler
}

// NewServer creates a dashboard server listening on addr.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Library == nil {
		return nil, ErrMissingLibraryService
	}
	s := &Server{
		addr:     addr,
		deps:     deps,
		renderer: artifact.NewRenderer(),
	}
	s.handler = s.routes()
	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", s.handleListContent)
		r.Get("/content/{id}", s.handleGetContent)
		r.Delete("/content/{id}", s.handleDeleteContent)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks/{id}/complete", s.handleSetTask(true))
		r.Post("/tasks/{id}/reopen", s.handleSetTask(false))
		r.Get("/tags", s.handleTopTags)
		r.Get("/stats", s.handleStats)
		r.Get("/digests", s.handleListDigests)
	})

	r.Get("/digests/{id}", s.handleDigestPage)

	if s.deps.MCP != nil {
		r.Handle("/mcp", s.deps.MCP)
	}
	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard: listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	logger.Debug("dashboard: stopped")
	return nil
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if logger.IsVerbose() {
			logger.WithFields(logger.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			}).Debug("http request")
		}
	})
}
