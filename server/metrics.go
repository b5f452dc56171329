package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the HTTP collectors of the admin server.
type Metrics struct {
	TotalRequests  *prometheus.CounterVec
	ResponseStatus *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics creates the HTTP collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TotalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admin",
				Name:      "http_requests_total",
				Help:      "Total number of admin HTTP requests",
			},
			[]string{"route"},
		),
		ResponseStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admin",
				Name:      "http_response_status_total",
				Help:      "Admin HTTP response status codes",
			},
			[]string{"status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "admin",
				Name:      "http_request_duration_seconds",
				Help:      "Admin HTTP request latency",
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(m.TotalRequests, m.ResponseStatus, m.HTTPDuration)

	return m
}

// middleware records every request. The route label is the chi route
// pattern, so path parameters do not create new series.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			m.HTTPDuration.WithLabelValues(routePattern(r)).Observe(v)
		}))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.ResponseStatus.WithLabelValues(strconv.Itoa(status)).Inc()
		m.TotalRequests.WithLabelValues(routePattern(r)).Inc()
		timer.ObserveDuration()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}
