package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the stream supervisor.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	startsTotal        prometheus.Counter
	stopsTotal         prometheus.Counter
	switchesTotal      prometheus.Counter
	crashRestartsTotal prometheus.Counter
	activeSessions     prometheus.Gauge
	errorsTotal        prometheus.Counter
}

// New creates and registers Prometheus metrics for the supervisor.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_requests_total",
		Help: "Total number of HTTP requests received",
	})
	startsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_stream_starts_total",
		Help: "Total number of encoder processes launched",
	})
	stopsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_stream_stops_total",
		Help: "Total number of streams stopped",
	})
	switchesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_stream_switches_total",
		Help: "Total number of file switches on active streams",
	})
	crashRestartsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_crash_restarts_total",
		Help: "Total number of automatic restarts after an encoder crash",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "livecast_active_sessions",
		Help: "Number of tenants with a live encoder process",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecast_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		startsTotal,
		stopsTotal,
		switchesTotal,
		crashRestartsTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		startsTotal:        startsTotal,
		stopsTotal:         stopsTotal,
		switchesTotal:      switchesTotal,
		crashRestartsTotal: crashRestartsTotal,
		activeSessions:     activeSessions,
		errorsTotal:        errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncStarts increments the encoder launch counter.
func (m *Metrics) IncStarts() {
	m.startsTotal.Inc()
}

// IncStops increments the stream stop counter.
func (m *Metrics) IncStops() {
	m.stopsTotal.Inc()
}

// IncSwitches increments the live file-switch counter.
func (m *Metrics) IncSwitches() {
	m.switchesTotal.Inc()
}

// IncCrashRestarts increments the automatic crash-restart counter.
func (m *Metrics) IncCrashRestarts() {
	m.crashRestartsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g.
// active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
