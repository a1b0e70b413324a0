// Package server serves the health form over HTTP: an HTML form, one
// in-memory session per submission, and operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/internal/metrics"
	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/renderers/html"
)

// DefaultRefreshSeconds is how often a pending page reloads itself.
const DefaultRefreshSeconds = 1

const maxFormBytes = 64 << 10

// Option configures the Server.
type Option func(*Server)

// WithLogger attaches a zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records workflow metrics and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithSessionTTL sets how long idle sessions are kept. Zero keeps them.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// Presenter renders pages, including the one for unknown sessions.
type Presenter interface {
	render.Presenter
	PresentMissing(ctx context.Context, schema *model.Schema) ([]byte, error)
}

var _ Presenter = (*html.Presenter)(nil)

// WithPresenter replaces the default HTML presenter.
func WithPresenter(presenter Presenter) Option {
	return func(s *Server) {
		if presenter != nil {
			s.presenter = presenter
		}
	}
}

// WithRefreshSeconds sets the pending page reload interval.
func WithRefreshSeconds(seconds int) Option {
	return func(s *Server) {
		if seconds > 0 {
			s.refresh = seconds
		}
	}
}

// Server routes browser requests onto form controllers.
type Server struct {
	schema     *model.Schema
	submitter  controller.Submitter
	presenter  Presenter
	logger     *zap.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	sessionTTL time.Duration
	refresh    int

	store  *Store
	router chi.Router

	// baseCtx bounds background submissions; it outlives single requests.
	baseCtx context.Context
}

// New wires the router. submitter performs the prediction request.
func New(schema *model.Schema, submitter controller.Submitter, options ...Option) (*Server, error) {
	if schema == nil {
		return nil, errors.New("server: schema is required")
	}
	if submitter == nil {
		return nil, errors.New("server: submitter is required")
	}

	s := &Server{
		schema:     schema,
		submitter:  submitter,
		logger:     zap.NewNop(),
		sessionTTL: 30 * time.Minute,
		refresh:    DefaultRefreshSeconds,
		baseCtx:    context.Background(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if s.presenter == nil {
		presenter, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.presenter = presenter
	}

	var sessionMetrics SessionMetrics
	if s.metrics != nil {
		sessionMetrics = s.metrics
	}
	s.store = NewStore(s.sessionTTL, sessionMetrics, s.logger)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleForm)
	r.Post("/submissions", s.handleSubmit)
	r.Get("/submissions/{id}", s.handleSubmission)
	r.Post("/submissions/{id}/retry", s.handleRetry)
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeMissing(w, r)
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session store.
func (s *Server) Sessions() *Store {
	return s.store
}

// Run serves on addr until ctx ends, then shuts down gracefully within
// shutdownTimeout. Background submissions are bound to ctx.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if s.sessionTTL > 0 {
		go s.store.RunJanitor(ctx, janitorInterval(s.sessionTTL))
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
