// Package server exposes the fractal library and the generate → render
// pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /fractals
//	GET    /fractals/{name}
//	GET    /fractals/{name}/render?format=svg|png|json
//	POST   /render?format=svg      body: {"name": "...", "rows": [[a,b,c,d,e,f,w], ...]}
//	GET    /cache
//	DELETE /cache
//	DELETE /cache/{name}
//
// All routes share one pipeline.Runner, so named results are cached across
// requests by the runner's generator.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/chaosgame/pkg/pipeline"
	"github.com/matzehuels/chaosgame/pkg/render"
)

const (
	// maxBodyBytes bounds POST /render request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	defaults render.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderDefaults sets the render options query parameters start from.
func WithRenderDefaults(o render.Options) Option {
	return func(s *Server) { s.defaults = o }
}

// New creates a Server backed by runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		defaults: render.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/fractals", func(r chi.Router) {
		r.Get("/", s.handleListFractals)
		r.Get("/{name}", s.handleGetFractal)
		r.Get("/{name}/render", s.handleRenderNamed)
	})
	r.Post("/render", s.handleRender)

	r.Route("/cache", func(r chi.Router) {
		r.Get("/", s.handleCacheStatus)
		r.Delete("/", s.handlePurgeCache)
		r.Delete("/{name}", s.handleInvalidate)
	})

	return r
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
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
