package lru

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector receives cache usage statistics.
type MetricsCollector interface {
	// SetAmount sets the current number of entries.
	SetAmount(int)

	// IncHits increments the number of lookups that found their key.
	IncHits()

	// IncMisses increments the number of lookups that did not find their key.
	IncMisses()

	// AddEvictions increments the number of entries evicted for capacity.
	AddEvictions(int)
}

// PrometheusMetrics is a MetricsCollector backed by Prometheus collectors.
type PrometheusMetrics struct {
	entries   prometheus.Gauge
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewPrometheusMetrics creates cache collectors labelled with cache=name.
// The collectors are not registered, see MustRegister.
func NewPrometheusMetrics(namespace, name string) *PrometheusMetrics {
	labels := prometheus.Labels{"cache": name}

	return &PrometheusMetrics{
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_entries",
			Help:        "Number of entries in the cache",
			ConstLabels: labels,
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_hits_total",
			Help:        "Number of cache hits",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_misses_total",
			Help:        "Number of cache misses",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_evictions_total",
			Help:        "Number of cache evictions",
			ConstLabels: labels,
		}),
	}
}

// MustRegister registers the collectors and panics on error.
func (m *PrometheusMetrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.entries, m.hits, m.misses, m.evictions)
}

func (m *PrometheusMetrics) SetAmount(n int)    { m.entries.Set(float64(n)) }
func (m *PrometheusMetrics) IncHits()           { m.hits.Inc() }
func (m *PrometheusMetrics) IncMisses()         { m.misses.Inc() }
func (m *PrometheusMetrics) AddEvictions(n int) { m.evictions.Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)    {}
func (disabledMetrics) IncHits()         {}
func (disabledMetrics) IncMisses()       {}
func (disabledMetrics) AddEvictions(int) {}
