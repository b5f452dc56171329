// Command sputil-demo wires the toolkit together: jobs flow through a
// queue, are paced into a worker pool and compute results through an LRU
// cache, while the admin server exposes their stats and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/novbytes/sputil/config"
	"github.com/novbytes/sputil/debug"
	"github.com/novbytes/sputil/limiter"
	"github.com/novbytes/sputil/lru"
	"github.com/novbytes/sputil/queue"
	"github.com/novbytes/sputil/server"
	"github.com/novbytes/sputil/taskrunner"
	"github.com/novbytes/sputil/workpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("sputil-demo", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	jobs := fs.Int("jobs", 40, "number of demo jobs")
	keys := fs.Int("keys", 12, "number of distinct cache keys the jobs use")
	seed := fs.Int64("seed", time.Now().UnixNano(), "seed for the job order")
	stay := fs.Bool("stay", false, "keep the admin server running after the jobs finished")
	dumpEvery := fs.Duration("dump-interval", 0, "log a goroutine dump this often (0 disables)")
	fs.Int("pool.workers", 0, "worker count, 0 means GOMAXPROCS")
	fs.Int("pacer.calls_per_second", 5, "job submission rate")
	fs.Int("cache.capacity", 128, "cache capacity")
	fs.String("admin.address", "127.0.0.1:8090", "admin server address")
	fs.String("log.level", "info", "log level")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *keys < 1 {
		return errors.New("--keys must be at least 1")
	}

	loadOpts := []config.LoadOption{config.WithFlags(fs)}
	if *configFile != "" {
		loadOpts = append(loadOpts, config.WithFile(*configFile))
	}

	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()
	if err != nil {
		logger.Warn("failed to set GOMAXPROCS", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug.StartDumper(ctx, logger, *dumpEvery, debug.FilterConfig{
		IncludePatterns: []string{"github.com/novbytes/sputil"},
	})

	var reg prometheus.Registerer = prometheus.NewRegistry()

	var admin *server.Server
	if cfg.Admin.Enabled {
		opts := []server.Option{
			server.WithAddr(cfg.Admin.Address),
			server.WithTimeouts(cfg.Admin.ReadTimeout, cfg.Admin.WriteTimeout),
			server.WithShutdownTimeout(cfg.Admin.ShutdownTimeout),
			server.WithNamespace(cfg.Metrics.Namespace),
			server.WithBrotli(),
			server.WithProfiling(),
		}
		if cfg.Admin.AuthSecret != "" {
			opts = append(opts, server.WithAuth(cfg.Admin.AuthSecret))
		}
		if len(cfg.Admin.AllowedOrigins) > 0 {
			opts = append(opts, server.WithCorsDomains(cfg.Admin.AllowedOrigins))
		}

		admin, err = server.New(logger, opts...)
		if err != nil {
			return err
		}
		reg = admin.Registry()
	}

	poolMetrics := workpool.NewMetrics(cfg.Metrics.Namespace, "demo")
	poolMetrics.MustRegister(reg)

	poolOpts := []workpool.Option{
		workpool.WithLogger(logger),
		workpool.WithMetrics(poolMetrics),
		workpool.WithQueueCapacity(cfg.Pool.QueueCapacity),
	}
	if cfg.Pool.Workers > 0 {
		poolOpts = append(poolOpts, workpool.WithWorkers(cfg.Pool.Workers))
	}

	pool, err := workpool.New(poolOpts...)
	if err != nil {
		return err
	}
	runner := taskrunner.NewRunner(pool)
	defer runner.Close()

	pacer, err := limiter.NewPacer(cfg.Pacer.CallsPerSecond, limiter.WithLogger(logger))
	if err != nil {
		return err
	}

	cacheMetrics := lru.NewPrometheusMetrics(cfg.Metrics.Namespace, "squares")
	cacheMetrics.MustRegister(reg)

	cache, err := lru.NewCache[int, int](cfg.Cache.Capacity, lru.WithMetrics[int, int](cacheMetrics))
	if err != nil {
		return err
	}

	queueMetrics := queue.NewMetrics(cfg.Metrics.Namespace, "jobs")
	queueMetrics.MustRegister(reg)
	pending := queue.New[int](queue.WithCapacity(*jobs), queue.WithMetrics(queueMetrics))

	if admin != nil {
		admin.Register("pool", func() any { return pool.Stats() })
		admin.Register("cache", func() any { return cache.Stats() })
		admin.Register("jobs", func() any { return map[string]int{"pending": pending.Len()} })

		if err := admin.Start(); err != nil {
			return err
		}
		defer func() {
			if err := admin.Shutdown(context.Background()); err != nil {
				logger.Warn("admin server shutdown", slog.Any("error", err))
			}
		}()
	}

	d := demo{
		logger:  logger,
		pool:    pool,
		runner:  runner,
		pacer:   pacer,
		cache:   cache,
		pending: pending,
		keys:    *keys,
	}

	if err := d.run(ctx, *jobs, rand.New(rand.NewSource(*seed))); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if *stay && ctx.Err() == nil {
		logger.Info("jobs finished, serving admin endpoints until interrupted")
		<-ctx.Done()
	}

	return nil
}
