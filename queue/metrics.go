package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a queue.
type Metrics struct {
	depth  prometheus.Gauge
	pushed prometheus.Counter
	popped prometheus.Counter
}

// NewMetrics creates queue collectors. name is attached as the "queue" label.
// The collectors are not registered, see MustRegister.
func NewMetrics(namespace, name string) *Metrics {
	labels := prometheus.Labels{"queue": name}

	return &Metrics{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "queue_depth",
			Help:        "Number of items waiting in the queue",
			ConstLabels: labels,
		}),
		pushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "queue_pushed_total",
			Help:        "Number of items pushed to the queue",
			ConstLabels: labels,
		}),
		popped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "queue_popped_total",
			Help:        "Number of items popped from the queue",
			ConstLabels: labels,
		}),
	}
}

// MustRegister registers the collectors and panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.depth, m.pushed, m.popped)
}
