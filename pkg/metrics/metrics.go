// Package metrics defines the Prometheus metric collectors used across the
// harvester and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the harvester.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HarvestBatchesTotal  *prometheus.CounterVec
	DocumentsStoredTotal *prometheus.CounterVec
	DocumentFetchErrors  *prometheus.CounterVec
	DocumentBytesStored  prometheus.Counter
	HarvestDuration      prometheus.Histogram
	AnswerQueriesTotal   *prometheus.CounterVec
	AnswerCacheHits      prometheus.Counter
	AnswerCacheMisses    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
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
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		HarvestBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_batches_total",
				Help: "Total harvest batch runs by outcome (completed, failed).",
			},
			[]string{"outcome"},
		),
		DocumentsStoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_documents_stored_total",
				Help: "Total documents stored, by section.",
			},
			[]string{"section"},
		),
		DocumentFetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_document_errors_total",
				Help: "Per-document pipeline failures by error kind.",
			},
			[]string{"kind"},
		),
		DocumentBytesStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_document_bytes_stored_total",
				Help: "Total payload bytes written to the object store.",
			},
		),
		HarvestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvest_batch_duration_seconds",
				Help:    "End-to-end harvest batch duration in seconds.",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		),
		AnswerQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "answer_queries_total",
				Help: "Total answered policy queries by matched topic.",
			},
			[]string{"topic"},
		),
		AnswerCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "answer_cache_hits_total",
				Help: "Total answer cache hits.",
			},
		),
		AnswerCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "answer_cache_misses_total",
				Help: "Total answer cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.HarvestBatchesTotal,
		m.DocumentsStoredTotal,
		m.DocumentFetchErrors,
		m.DocumentBytesStored,
		m.HarvestDuration,
		m.AnswerQueriesTotal,
		m.AnswerCacheHits,
		m.AnswerCacheMisses,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
