package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the heartbeat service.
type Metrics struct {
	checksTotal       *prometheus.CounterVec
	checkDuration     prometheus.Histogram
	probeDuration     *prometheus.HistogramVec
	probeUp           *prometheus.GaugeVec
	probeFailures     *prometheus.CounterVec
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	unauthorizedTotal prometheus.Counter
	buildInfo         *prometheus.GaugeVec
	startTime         prometheus.Gauge
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "heartbeat"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of heartbeat runs",
		},
		[]string{"outcome"},
	)

	m.checkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Total duration of a heartbeat run in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
	)

	m.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of individual probe executions in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"probe"},
	)

	m.probeUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_up",
			Help:      "Result of the most recent probe execution (1=success, 0=failure)",
		},
		[]string{"probe"},
	)

	m.probeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Total number of failed probe executions",
		},
		[]string{"probe"},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of heartbeat HTTP requests",
		},
		[]string{"status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Heartbeat HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"status"},
	)

	m.unauthorizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_total",
			Help:      "Total number of heartbeat requests rejected by the API key check",
		},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the heartbeat service",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Start time of the heartbeat service in unix seconds",
		},
	)

	m.registerCollectors()

	m.startTime.SetToCurrentTime()

	return m
}

// registerCollectors registers all metric collectors with the registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.checksTotal,
		m.checkDuration,
		m.probeDuration,
		m.probeUp,
		m.probeFailures,
		m.requestsTotal,
		m.requestDuration,
		m.unauthorizedTotal,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// RecordCheck records a completed heartbeat run.
func (m *Metrics) RecordCheck(success bool, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
	m.checkDuration.Observe(duration.Seconds())
}

// RecordProbe records the outcome of a single probe execution.
func (m *Metrics) RecordProbe(probe string, success bool, duration time.Duration) {
	m.probeDuration.WithLabelValues(probe).Observe(duration.Seconds())

	value := 0.0
	if success {
		value = 1.0
	} else {
		m.probeFailures.WithLabelValues(probe).Inc()
	}
	m.probeUp.WithLabelValues(probe).Set(value)
}

// RecordRequest records a completed heartbeat HTTP request.
func (m *Metrics) RecordRequest(status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(statusStr).Inc()
	m.requestDuration.WithLabelValues(statusStr).Observe(duration.Seconds())
}

// RecordUnauthorized records a heartbeat request rejected by the API key check.
func (m *Metrics) RecordUnauthorized() {
	m.unauthorizedTotal.Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
