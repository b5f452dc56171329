// Package sputil is an in-process concurrency toolkit.
//
// CONCURRENCY:
//
//   - workpool: fixed-size worker pool with futures, panic isolation and
//     drain-on-close shutdown
//   - queue: unbounded blocking multi-producer/multi-consumer FIFO queue
//   - taskrunner: named batches of tasks on top of a workpool
//
// RATE LIMITING:
//
//   - limiter: Pacer spaces calls to a fixed rate across goroutines;
//     KeyedLimiter keeps a token bucket per key
//
// CACHING & STORAGE:
//
//   - lru: fixed-capacity least-recently-used Set and a synchronized Cache
//     with coalesced loads
//   - safemap: generic RWMutex-guarded map
//
// OPERATIONS:
//
//   - server: admin HTTP server with health, component stats, goroutine
//     dumps, Prometheus metrics, pprof and optional bearer-token auth
//   - config: viper-backed configuration with env, file, flag and secret
//     file sources
//   - debug: filtered goroutine dumps and size reports
//
// UTILITIES:
//
//   - sliceutil: shuffle with an explicit random source, dedupe, python-style
//     slicing, filter and map
//   - timeutil: timestamps, stopwatch, scope timer and a duration type with
//     day units
//
// cmd/sputil-demo shows the packages working together.
package sputil
