// Package httpserver provides the HTTP entrypoint unit. It serves liveness,
// aggregated and per-unit health reports, and Prometheus metrics.
//
// Routes:
//   - GET /healthz - liveness, always 200
//   - GET <HealthPath> - aggregated report, 200 or 500
//   - GET <HealthPath>/{name} - one unit, 404 when unknown
//   - GET /metrics - Prometheus exposition
//
// When an Authenticator is configured the two health report routes require a
// valid bearer token.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/lifeops/auth"
	"github.com/jonwraymond/lifeops/health"
	"github.com/jonwraymond/lifeops/observe"
)

// ErrAlreadyStarted is returned by Start on a running server.
var ErrAlreadyStarted = errors.New("httpserver: already started")

// Config configures the server.
type Config struct {
	// Addr is the TCP listen address.
	// Default: ":8080"
	Addr string

	// HealthPath is the aggregated report route.
	// Default: "/health"
	HealthPath string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5s
	ReadHeaderTimeout time.Duration

	// Health configures the report handlers.
	Health health.HandlerConfig

	// Authenticator guards the report routes. Nil leaves them open.
	Authenticator auth.Authenticator

	// RequiredRole is the role a guarded caller must hold.
	RequiredRole string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// Server is an HTTP entrypoint managed by the lifecycle engine.
type Server struct {
	config   Config
	logger   observe.Logger
	gatherer prometheus.Gatherer
	handler  http.Handler

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New creates a server reporting on agg. It does not listen until Start.
func New(agg *health.Aggregator, cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}

	s := &Server{
		config:   cfg,
		logger:   observe.NopLogger(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes(agg)
	return s
}

func (s *Server) routes(agg *health.Aggregator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.LivenessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	single := health.SingleCheckHandler(agg, s.config.Health)
	r.Group(func(r chi.Router) {
		r.Use(auth.Guard(s.config.Authenticator,
			auth.RequireRole(s.config.RequiredRole),
			auth.WithGuardLogger(s.logger),
		))
		r.Get(s.config.HealthPath, health.Handler(agg, s.config.Health))
		r.Get(s.config.HealthPath+"/{name}", func(w http.ResponseWriter, r *http.Request) {
			r.SetPathValue("name", chi.URLParam(r, "name"))
			single(w, r)
		})
	})

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in the background. A bind
// failure is returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return ErrAlreadyStarted
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	s.srv = srv
	s.ln = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "HTTP server stopped", observe.F("error", err))
		}
	}()

	s.logger.Info(ctx, "HTTP server listening", observe.F("addr", ln.Addr().String()))
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

// Addr returns the bound address while running, otherwise the configured
// one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.config.Addr
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug(r.Context(), "HTTP request completed",
			observe.F("request_id", middleware.GetReqID(r.Context())),
			observe.F("method", r.Method),
			observe.F("path", r.URL.Path),
			observe.F("status", ww.Status()),
			observe.F("duration", time.Since(start).String()),
		)
	})
}
