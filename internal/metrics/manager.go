// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fittrack"

type Manager struct {
	// counters
	CounterRequests        *prometheus.CounterVec
	CounterWorkoutsLogged  prometheus.Counter
	CounterPersonalRecords *prometheus.CounterVec
	CounterPlanAdvances    prometheus.Counter
	CounterPlansCompleted  prometheus.Counter
	CounterImportedFiles   *prometheus.CounterVec

	// gauges
	GaugeLiveSessions prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager(prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(reg), reg
}

func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of handled HTTP requests",
		}, []string{"method", "route", "status"}),
		CounterWorkoutsLogged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workouts_logged_total",
			Help:      "The total number of saved workouts",
		}),
		CounterPersonalRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "personal_records_total",
			Help:      "The total number of new personal records",
		}, []string{"record_type"}),
		CounterPlanAdvances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_advances_total",
			Help:      "The total number of plan days marked done",
		}),
		CounterPlansCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_completed_total",
			Help:      "The total number of finished plan enrollments",
		}),
		CounterImportedFiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "The total number of import requests by status",
		}, []string{"source", "status"}),
		GaugeLiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Current number of open live workout sessions",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}
}
