// Package metrics defines the Prometheus metric collectors used by the
// post server and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	PostLookupsTotal     *prometheus.CounterVec
	PostsIndexedTotal    prometheus.Counter
	PostsSkippedTotal    *prometheus.CounterVec
	PostsReplacedTotal   prometheus.Counter
	IngestDuration       prometheus.Histogram
	IndexedPosts         *prometheus.GaugeVec
	RateLimitedTotal     prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg. Passing nil uses
// a fresh registry, which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		PostLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_lookups_total",
				Help: "Single-post lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		PostsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posts_indexed_total",
				Help: "Total posts loaded into the index.",
			},
		),
		PostsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posts_skipped_total",
				Help: "Post files skipped during ingestion by reason.",
			},
			[]string{"reason"},
		),
		PostsReplacedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posts_replaced_total",
				Help: "Posts that overwrote an earlier file with the same language and id.",
			},
		),
		IngestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_duration_seconds",
				Help:    "Time taken to load the content tree.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		IndexedPosts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indexed_posts",
				Help: "Number of posts held in the index per language.",
			},
			[]string{"lang"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PostLookupsTotal,
		m.PostsIndexedTotal,
		m.PostsSkippedTotal,
		m.PostsReplacedTotal,
		m.IngestDuration,
		m.IndexedPosts,
		m.RateLimitedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
