// Package telemetry holds the Prometheus collectors of the service.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	chat        *prometheus.CounterVec
	skipped     *prometheus.CounterVec
}

// New builds the collectors on a private registry, so tests can create as many
// as they like.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_transitions_total",
			Help: "Recommendation status changes by target status.",
		}, []string{"status"}),
		chat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_streams_total",
			Help: "Chat completions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_rows_skipped_total",
			Help: "Rows dropped by validation, by source.",
		}, []string{"source"}),
	}
	m.reg.MustRegister(
		m.requests, m.latency, m.transitions, m.chat, m.skipped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) Transition(s models.RecommendationStatus) {
	m.transitions.WithLabelValues(string(s)).Inc()
}

// ChatStream records one finished completion; outcome is ok, error or canceled.
func (m *Metrics) ChatStream(provider, outcome string) {
	m.chat.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RowsSkipped(source string, n int) {
	m.skipped.WithLabelValues(source).Add(float64(n))
}
