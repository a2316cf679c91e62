// Package metrics holds the Prometheus collectors shared by the Spotify client, the sync engine and the HTTP server.
//
// Every method is safe to call on a nil [*Metrics] so components run without instrumentation in tests and the CLI.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plsync"

// Metrics groups the collectors for one registry.
type Metrics struct {
	APIRequests  *prometheus.CounterVec
	RateLimited  prometheus.Counter
	Batches      *prometheus.CounterVec
	Syncs        *prometheus.CounterVec
	Undos        *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of Spotify Web API requests",
			},
			[]string{"method", "status"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of 429 responses that were retried",
			},
		),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of add/remove batches sent",
			},
			[]string{"op", "status"},
		),
		Syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syncs_total",
				Help:      "Total number of sync operations",
			},
			[]string{"status"},
		),
		Undos: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undo_total",
				Help:      "Total number of undo requests by result",
			},
			[]string{"result"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.APIRequests,
			m.RateLimited,
			m.Batches,
			m.Syncs,
			m.Undos,
			m.HTTPDuration,
		)
	}
	return m
}

// ObserveAPIRequest counts one outbound request. A status of 0 records a transport failure.
func (m *Metrics) ObserveAPIRequest(method string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveBatch counts one mutation batch; op is "add" or "remove".
func (m *Metrics) ObserveBatch(op string, err error) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(op, status(err)).Inc()
}

func (m *Metrics) ObserveSync(err error) {
	if m == nil {
		return
	}
	m.Syncs.WithLabelValues(status(err)).Inc()
}

// ObserveUndo counts an undo request; result is "restored", "not_found" or "error".
func (m *Metrics) ObserveUndo(result string) {
	if m == nil {
		return
	}
	m.Undos.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
