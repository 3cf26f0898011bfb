package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the Prometheus collectors of the service.
type MetricsManager struct {
	Registry            *prometheus.Registry
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PostVotesTotal      *prometheus.CounterVec
	ContactEmailsTotal  *prometheus.CounterVec
	ScreenshotsTotal    *prometheus.CounterVec
}

// NewMetricsManager registers the collectors on a dedicated registry.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	postVotesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_votes_total",
		Help:      "Total number of likes and dislikes recorded.",
	}, []string{"counter"})

	contactEmailsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contact_emails_total",
		Help:      "Contact form emails by outcome.",
	}, []string{"result"})

	screenshotsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screenshots_total",
		Help:      "Screenshots rendered by outcome.",
	}, []string{"result"})

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		postVotesTotal,
		contactEmailsTotal,
		screenshotsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:            registry,
		HTTPRequestsTotal:   requestsTotal,
		HTTPRequestDuration: requestDuration,
		PostVotesTotal:      postVotesTotal,
		ContactEmailsTotal:  contactEmailsTotal,
		ScreenshotsTotal:    screenshotsTotal,
	}
}

// Outcome returns the result label for an operation error.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewMetricsServer returns the server exposing /metrics on port, or nil when
// no port is configured.
func NewMetricsServer(port string, m *MetricsManager, logger *zap.Logger) *http.Server {
	if port == "" {
		logger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
}
