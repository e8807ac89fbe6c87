// Package metrics exposes the Prometheus counters and histograms of the roster service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/roster"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	AddedTotal      *prometheus.CounterVec
	RemovedTotal    *prometheus.CounterVec
	UpdatedTotal    *prometheus.CounterVec
	CodesTotal      *prometheus.CounterVec
	LoginsTotal     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a private registry with the process and Go collectors plus the roster metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		AddedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_entrants_added_total",
			Help: "Entrants added to a meal list, by source and meal",
		}, []string{"source", "meal"}),
		RemovedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_entrants_removed_total",
			Help: "Entrants removed from a meal list",
		}, []string{"meal"}),
		UpdatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_entrants_updated_total",
			Help: "Entrants edited in place",
		}, []string{"meal"}),
		CodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_access_codes_generated_total",
			Help: "Access codes generated, by source",
		}, []string{"source"}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_login_attempts_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EntrantsAdded implements application.MetricsRecorder.
func (m *Metrics) EntrantsAdded(source string, meal roster.Meal, count int) {
	m.AddedTotal.WithLabelValues(source, string(meal)).Add(float64(count))
}

// EntrantRemoved implements application.MetricsRecorder.
func (m *Metrics) EntrantRemoved(meal roster.Meal) {
	m.RemovedTotal.WithLabelValues(string(meal)).Inc()
}

// EntrantUpdated implements application.MetricsRecorder.
func (m *Metrics) EntrantUpdated(meal roster.Meal) {
	m.UpdatedTotal.WithLabelValues(string(meal)).Inc()
}

// AccessCodeGenerated implements application.MetricsRecorder.
func (m *Metrics) AccessCodeGenerated(source application.CodeSource) {
	m.CodesTotal.WithLabelValues(string(source)).Inc()
}

// LoginAttempt implements application.MetricsRecorder.
func (m *Metrics) LoginAttempt(role application.Role, outcome string) {
	m.LoginsTotal.WithLabelValues(string(role), outcome).Inc()
}

// ObserveRequest records the duration of a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

var _ application.MetricsRecorder = (*Metrics)(nil)
