package workpool

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Metrics holds the Prometheus collectors of a pool.
type Metrics struct {
	queued    prometheus.Gauge
	active    prometheus.Gauge
	submitted prometheus.Counter
	rejected  prometheus.Counter
	completed *prometheus.CounterVec
	duration  prometheus.Histogram
	wait      prometheus.Histogram
}

// NewMetrics creates pool collectors labelled with pool=name.
// The collectors are not registered, see MustRegister.
func NewMetrics(namespace, name string) *Metrics {
	labels := prometheus.Labels{"pool": name}

	return &Metrics{
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "workpool_queued_tasks",
			Help:        "Number of tasks waiting for a worker",
			ConstLabels: labels,
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "workpool_active_tasks",
			Help:        "Number of tasks currently executing",
			ConstLabels: labels,
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "workpool_submitted_total",
			Help:        "Number of tasks accepted by the pool",
			ConstLabels: labels,
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "workpool_rejected_total",
			Help:        "Number of tasks rejected because the pool was stopped",
			ConstLabels: labels,
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "workpool_completed_total",
			Help:        "Number of executed tasks by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "workpool_task_duration_seconds",
			Help:        "Task execution time",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "workpool_task_wait_seconds",
			Help:        "Time tasks spent queued before a worker picked them up",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
}

// MustRegister registers the collectors and panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.queued, m.active, m.submitted, m.rejected, m.completed, m.duration, m.wait)
}
