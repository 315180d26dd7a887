package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "manifestcheck"

// metrics implements the observability hooks on top of Prometheus.
type metrics struct {
	checksTotal     *prometheus.CounterVec
	checkDuration   prometheus.Histogram
	packagesTotal   *prometheus.CounterVec
	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "checks_total",
			Help:      "Checks run, by outcome (ok, mismatch, error).",
		}, []string{"outcome"}),

		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "check_duration_seconds",
			Help:      "Wall time of a whole check including the dependency walk.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		packagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packages_examined_total",
			Help:      "Packages examined across all checks, by status (ok, mismatch, unresolved).",
		}, []string{"status"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "checks_in_flight",
			Help:      "Checks currently running.",
		}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP responses, by host and status code.",
		}, []string{"host", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Upstream requests that failed without a response.",
		}, []string{"host"}),

		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Transient upstream failures that were retried.",
		}, []string{"host"}),
	}
}

func (m *metrics) OnCheckStart(context.Context, string) {
	m.inFlight.Inc()
}

func (m *metrics) OnPackageExamined(_ context.Context, _ string, status string) {
	m.packagesTotal.WithLabelValues(status).Inc()
}

func (m *metrics) OnCheckComplete(_ context.Context, _ string, mismatch bool, d time.Duration, err error) {
	m.inFlight.Dec()
	m.checkDuration.Observe(d.Seconds())
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case mismatch:
		outcome = "mismatch"
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
}

func (m *metrics) OnRequest(context.Context, string, string, string) {}

func (m *metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.requestErrors.WithLabelValues(host).Inc()
}

func (m *metrics) OnRetry(_ context.Context, host, _ string, _ int, _ error) {
	m.retriesTotal.WithLabelValues(host).Inc()
}
