// Package metrics defines the Prometheus metric collectors used by the
// retrieval services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchCandidates     prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CorpusReloadsTotal   *prometheus.CounterVec
	CorpusDocuments      prometheus.Gauge
	CorpusTerms          prometheus.Gauge
	VocabularySize       prometheus.Gauge
	SnapshotBuildSeconds prometheus.Histogram
}

// New creates metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered against reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
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
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by outcome (ok, empty_query, zero_result, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"cache_status"},
		),
		SearchCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_boolean_candidates",
				Help:    "Size of the boolean candidate set per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		CorpusReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_reloads_total",
				Help: "Total corpus snapshot rebuilds by status.",
			},
			[]string{"status"},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_documents",
				Help: "Number of documents in the published snapshot.",
			},
		),
		CorpusTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_index_terms",
				Help: "Number of distinct terms in the inverted index.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_tfidf_vocabulary_size",
				Help: "Number of columns in the fitted TF-IDF matrix.",
			},
		),
		SnapshotBuildSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_snapshot_build_seconds",
				Help:    "Time to read records and build index and model.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchCandidates,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CorpusReloadsTotal,
		m.CorpusDocuments,
		m.CorpusTerms,
		m.VocabularySize,
		m.SnapshotBuildSeconds,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
