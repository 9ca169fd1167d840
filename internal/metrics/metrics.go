// Package metrics records Prometheus metrics for CLI runs and API calls.
//
// The CLI is short-lived, so nothing is scraped. When a metrics file is
// configured the registry is written in the text exposition format on exit,
// ready for node_exporter's textfile collector.
package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every metric republic records.
type Metrics struct {
	// Command runs
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Backend calls
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Errors by code, see internal/errors
	Errors *prometheus.CounterVec
}

// New registers the metrics with registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "republic_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "republic_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "republic_api_requests_total",
				Help: "Total number of backend requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "republic_api_request_duration_seconds",
				Help:    "Backend request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "route"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "republic_errors_total",
				Help: "Total number of command failures by error code",
			},
			[]string{"code"},
		),
	}
}

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// Route replaces numeric path segments with {id} so that label values stay
// bounded.
func Route(path string) string {
	return idSegment.ReplaceAllString(path, "/{id}$1")
}

// ObserveRequest records one backend round trip. Status 0 means the
// request never got a response.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	route := Route(path)
	m.APIRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.APILatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

// RecordCommand records a finished command. code is the error code of a
// failed run, or "" when it carries none.
func (m *Metrics) RecordCommand(command string, d time.Duration, err error, code string) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(err == nil)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
	if err != nil {
		if code == "" {
			code = "unknown"
		}
		m.Errors.WithLabelValues(code).Inc()
	}
}
