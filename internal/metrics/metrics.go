// Package metrics exposes Prometheus collectors for validation outcomes,
// remote checks and the sandbox HTTP surface. Collectors are registered on a
// caller supplied registry so tests and embedders stay isolated.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors.
type Metrics struct {
	registry *prometheus.Registry

	Validations        *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	FieldFailures      *prometheus.CounterVec
	RemoteChecks       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formguard_validations_total",
				Help: "Server side validations by schema and outcome",
			},
			[]string{"schema", "outcome"},
		),
		ValidationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formguard_validation_duration_seconds",
				Help:    "Duration of server side validations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"schema"},
		),
		FieldFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formguard_field_failures_total",
				Help: "Field level failures by schema, field and rule kind",
			},
			[]string{"schema", "field", "kind"},
		),
		RemoteChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formguard_remote_checks_total",
				Help: "Remote check requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formguard_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formguard_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveValidation records one server side validation.
func (m *Metrics) ObserveValidation(schema string, elapsed time.Duration, valid bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.Validations.WithLabelValues(schema, outcome).Inc()
	m.ValidationDuration.WithLabelValues(schema).Observe(elapsed.Seconds())
}

// ObserveFieldFailure records a failing field.
func (m *Metrics) ObserveFieldFailure(schema, field, kind string) {
	if m == nil {
		return
	}
	m.FieldFailures.WithLabelValues(schema, field, kind).Inc()
}

// ObserveRemoteCheck records a remote check answered by endpoint.
func (m *Metrics) ObserveRemoteCheck(endpoint string, valid bool, err error) {
	if m == nil {
		return
	}
	result := strconv.FormatBool(valid)
	if err != nil {
		result = "error"
	}
	m.RemoteChecks.WithLabelValues(endpoint, result).Inc()
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
