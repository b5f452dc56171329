package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the admin server settings. It is filled by Options.
type Config struct {
	// addr is the address the server will listen on (e.g. "127.0.0.1:8090")
	addr string

	// readTimeout is the maximum duration for reading the entire request
	readTimeout time.Duration

	// writeTimeout is the maximum duration before timing out writes of the response
	writeTimeout time.Duration

	// requestTimeout cancels the request context of slow handlers
	requestTimeout time.Duration

	// idleTimeout is the maximum amount of time to wait for the next request
	idleTimeout time.Duration

	// shutdownTimeout bounds Shutdown when the caller's context has no deadline
	shutdownTimeout time.Duration

	maxRequestSize int64

	// allowedOrigins enables CORS for these origins when non-empty
	allowedOrigins []string

	enableProfiling bool
	enableGzip      bool
	enableBrotli    bool
	brotliLevel     int
	enableLogger    bool

	// authSecret protects the admin routes with HS256 bearer tokens when set
	authSecret []byte

	// namespace prefixes the server's own metrics
	namespace string
	registry  Registry
}

// Registry is where the server registers its collectors and what /metrics serves.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Option defines a functional option for configuring the server.
type Option func(*Config)

const (
	defaultAddr            = "127.0.0.1:8090"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultRequestTimeout  = 20 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultMaxRequestSize  = 1 << 20 // 1 MB
	defaultBrotliLevel     = 4
	defaultNamespace       = "sputil"
)

func defaultConfig() *Config {
	return &Config{
		addr:            defaultAddr,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		requestTimeout:  defaultRequestTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		maxRequestSize:  defaultMaxRequestSize,
		brotliLevel:     defaultBrotliLevel,
		enableLogger:    true,
		namespace:       defaultNamespace,
	}
}

// WithAddr sets the listen address. Port 0 picks a free port, see Server.Addr.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.addr = addr
	}
}

// WithTimeouts sets the read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(c *Config) {
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithRequestTimeout sets the per-request handler timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.requestTimeout = timeout
	}
}

// WithShutdownTimeout sets the maximum duration to wait for server shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithCorsDomains enables CORS for the given origins.
func WithCorsDomains(domains []string) Option {
	return func(c *Config) {
		c.allowedOrigins = domains
	}
}

// WithProfiling mounts the pprof handlers under /debug/pprof.
func WithProfiling() Option {
	return func(c *Config) {
		c.enableProfiling = true
	}
}

// WithGzip enables gzip compression. Brotli wins when both are enabled.
func WithGzip() Option {
	return func(c *Config) {
		c.enableGzip = true
	}
}

// WithBrotli enables brotli compression with an optional level (1-11, default 4).
func WithBrotli(level ...int) Option {
	return func(c *Config) {
		c.enableBrotli = true
		if len(level) > 0 {
			c.brotliLevel = min(max(level[0], 1), 11)
		}
	}
}

// WithoutRequestLog disables per-request log lines.
func WithoutRequestLog() Option {
	return func(c *Config) {
		c.enableLogger = false
	}
}

// WithAuth requires a bearer token signed with secret on every admin route.
// /health and /metrics stay public.
func WithAuth(secret string) Option {
	return func(c *Config) {
		c.authSecret = []byte(secret)
	}
}

// WithRegistry sets the metrics registry. By default the server uses a
// fresh registry that also carries the Go and process collectors.
func WithRegistry(reg Registry) Option {
	return func(c *Config) {
		c.registry = reg
	}
}

// WithNamespace sets the namespace of the server's HTTP metrics.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.namespace = namespace
	}
}
