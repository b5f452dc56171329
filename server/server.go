// Package server provides the admin HTTP surface of a process using the
// toolkit: health, component stats, goroutine dumps, Prometheus metrics
// and pprof.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novbytes/sputil/safemap"
)

// StatsFunc returns a snapshot of a component's state. It must be safe
// for concurrent use and is called on every /health and /stats request.
type StatsFunc func() any

// Server is the admin HTTP server.
type Server struct {
	server  http.Server
	logger  *slog.Logger
	metrics *Metrics
	router  *chi.Mux
	config  *Config

	components *safemap.Map[string, StatsFunc]

	mu       sync.Mutex
	listener net.Listener
	started  time.Time
}

func validateConfig(config *Config) error {
	if config.addr == "" {
		return errors.New("server address cannot be empty")
	}
	if config.readTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if config.writeTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if config.requestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if config.maxRequestSize <= 0 {
		return errors.New("max request size must be positive")
	}
	return nil
}

// New creates an admin server. It does not listen until Start is called.
func New(logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.registry == nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		config.registry = reg
	}

	s := &Server{
		logger:     logger,
		router:     chi.NewRouter(),
		config:     config,
		metrics:    NewMetrics(config.namespace, config.registry),
		components: safemap.New[string, StatsFunc](),
	}

	s.server = http.Server{
		Addr:              config.addr,
		Handler:           s.router,
		ReadTimeout:       config.readTimeout,
		WriteTimeout:      config.writeTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       config.idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the chi router instance for adding custom routes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Registry returns the registry served on /metrics. Components register
// their collectors here.
func (s *Server) Registry() Registry {
	return s.config.registry
}

// Register exposes a component's stats under name, replacing any previous
// registration with the same name.
func (s *Server) Register(name string, stats StatsFunc) {
	s.components.Set(name, stats)
}

// Unregister removes a component.
func (s *Server) Unregister(name string) {
	s.components.Delete(name)
}

func (s *Server) setupMiddleware() {
	baseMiddleware := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(s.config.requestTimeout),
		middleware.RequestSize(s.config.maxRequestSize),
		s.metrics.middleware,
	}

	if s.config.enableLogger {
		baseMiddleware = append(baseMiddleware, s.requestLogger)
	}

	if s.config.enableBrotli {
		baseMiddleware = append(baseMiddleware, s.brotliMiddleware)
	} else if s.config.enableGzip {
		baseMiddleware = append(baseMiddleware, middleware.Compress(5))
	}

	if len(s.config.allowedOrigins) > 0 {
		baseMiddleware = append(baseMiddleware, cors.Handler(cors.Options{
			AllowedOrigins: s.config.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization"},
			MaxAge:         300,
		}))
	}

	s.router.Use(baseMiddleware...)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Mount("/metrics", promhttp.HandlerFor(s.config.registry, promhttp.HandlerOpts{
		Registry: s.config.registry,
	}))

	s.router.Group(func(r chi.Router) {
		if len(s.config.authSecret) > 0 {
			r.Use(s.requireToken)
		}

		r.Get("/stats", s.handleStats)
		r.Get("/stats/{component}", s.handleComponentStats)
		r.Get("/debug/goroutines", s.handleGoroutines)

		if s.config.enableProfiling {
			r.Mount("/debug", middleware.Profiler())
		}
	})
}

// Start begins listening for requests in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	s.mu.Lock()
	s.listener = l
	s.started = time.Now()
	s.mu.Unlock()

	go func() {
		s.logger.Info("starting admin server", slog.String("addr", l.Addr().String()))
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server error", slog.Any("error", err))
		}
	}()

	return nil
}

// Shutdown gracefully stops the server. If ctx has no deadline the
// configured shutdown timeout applies.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && s.config.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.shutdownTimeout)
		defer cancel()
	}

	s.logger.Info("stopping admin server")

	return s.server.Shutdown(ctx)
}

// Addr returns the address the server listens on, or the configured
// address before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.server.Addr
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.IsZero() {
		return 0
	}

	return time.Since(s.started)
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("admin request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
