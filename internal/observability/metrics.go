package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the flood report session.
type Metrics struct {
	ReportsCreated       prometheus.Counter
	ReportsDeleted       prometheus.Counter
	ReconciliationErrors prometheus.Counter
	BackendErrors        *prometheus.CounterVec   // labels: op={fetch,create,delete}
	BackendDuration      *prometheus.HistogramVec // labels: op={fetch,create,delete}
	CachedReports        prometheus.Gauge
	SessionRunning       prometheus.Gauge
}

// NewMetrics creates and registers all session metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsCreated,
		m.ReportsDeleted,
		m.ReconciliationErrors,
		m.BackendErrors,
		m.BackendDuration,
		m.CachedReports,
		m.SessionRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "reports_created_total",
			Help:      "Flood reports persisted by this session.",
		}),
		ReportsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "reports_deleted_total",
			Help:      "Flood reports deleted by this session.",
		}),
		ReconciliationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "reconciliation_errors_total",
			Help:      "Delete requests aborted because the pin had no resolvable report id.",
		}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "backend_errors_total",
			Help:      "Report store failures by operation.",
		}, []string{"op"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodmap",
			Name:      "backend_duration_seconds",
			Help:      "Report store call duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		CachedReports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodmap",
			Name:      "cached_reports",
			Help:      "Reports currently held in the session cache.",
		}),
		SessionRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodmap",
			Name:      "session_running",
			Help:      "1 while the session event loop runs, 0 after it stopped.",
		}),
	}
}
