// Package handler exposes the retrieval engine over HTTP: the legacy
// /search endpoint, the versioned search API, corpus status and reload, and
// query cache administration.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/middleware"
)

// SearchExecutor is implemented by *executor.Executor.
type SearchExecutor interface {
	Execute(ctx context.Context, raw string, opts executor.Options) (*executor.SearchResult, error)
}

// Corpus is implemented by *indexer.Engine.
type Corpus interface {
	Current() (*indexer.Snapshot, error)
	Reload(ctx context.Context) (*indexer.Snapshot, error)
}

// Tracker receives analytics events. *analytics.Collector publishes them to
// Kafka and *analytics.Aggregator records them in process.
type Tracker interface {
	Track(event analytics.Event)
}

// LegacyResult is one element of the /search response array.
type LegacyResult struct {
	ID             string  `json:"id"`
	DocumentNumber int     `json:"document_number"`
	Highlights     string  `json:"highlights"`
	Score          float64 `json:"score"`
}

// Handler serves the search, corpus and cache endpoints.
type Handler struct {
	executor SearchExecutor
	corpus   Corpus
	cache    *cache.QueryCache
	tracker  Tracker
	metrics  *metrics.Metrics
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option { return func(h *Handler) { h.cache = c } }

func WithTracker(t Tracker) Option { return func(h *Handler) { h.tracker = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

func New(exec SearchExecutor, corpus Corpus, cfg config.SearchConfig, opts ...Option) *Handler {
	h := &Handler{
		executor: exec,
		corpus:   corpus,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.LegacySearch)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/corpus", h.Corpus)
	mux.HandleFunc("POST /api/v1/corpus/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// LegacySearch serves GET /search?query=... as a bare JSON array of every
// boolean candidate in position order. search.maxResults does not apply.
func (h *Handler) LegacySearch(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("query") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'query' is required")
		return
	}
	start := time.Now()
	query := r.URL.Query().Get("query")
	result, cacheHit, err := h.run(r.Context(), query, executor.Options{Order: executor.OrderPosition, All: true})
	if err != nil {
		h.fail(w, r, query, err)
		return
	}
	out := make([]LegacyResult, len(result.Results))
	for i, res := range result.Results {
		out[i] = LegacyResult{
			ID:             res.ExternalID,
			DocumentNumber: res.DocumentNumber,
			Highlights:     res.Summary,
			Score:          res.Score,
		}
	}
	h.observe(r.Context(), result, cacheHit, start)
	h.writeJSON(w, http.StatusOK, out)
}

// Search serves GET /api/v1/search?q=...&order=position|score&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	query := params.Get("q")

	rawOrder := params.Get("order")
	if rawOrder == "" {
		rawOrder = h.cfg.DefaultOrder
	}
	order, err := executor.ParseOrder(rawOrder)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, apperrors.PublicMessage(err))
		return
	}

	limit := h.cfg.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if h.cfg.MaxResults > 0 && limit > h.cfg.MaxResults {
		limit = h.cfg.MaxResults
	}

	result, cacheHit, err := h.run(r.Context(), query, executor.Options{Order: order, Limit: limit})
	if err != nil {
		h.fail(w, r, query, err)
		return
	}
	h.observe(r.Context(), result, cacheHit, start)
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	h.writeJSON(w, http.StatusOK, result)
}

// run executes the query through the cache when one is configured. The query
// is validated first, since cache keys are built from its lower-cased form.
func (h *Handler) run(ctx context.Context, query string, opts executor.Options) (*executor.SearchResult, bool, error) {
	if err := parser.Validate(query); err != nil {
		return nil, false, err
	}
	start := time.Now()
	if h.cache == nil {
		result, err := h.executor.Execute(ctx, query, opts)
		h.recordLatency(start, "disabled")
		return result, false, err
	}
	snap, err := h.corpus.Current()
	if err != nil {
		return nil, false, err
	}
	key := cache.Key{
		Query:   query,
		Version: snap.Version,
		Order:   opts.Order,
		Limit:   opts.Limit,
		All:     opts.All,
		Stemmed: h.cfg.StemScoreQuery,
	}
	result, hit, err := h.cache.GetOrCompute(ctx, key, func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, query, opts)
	})
	status := "miss"
	if hit {
		status = "hit"
	}
	h.recordLatency(start, status)
	return result, hit, err
}

func (h *Handler) recordLatency(start time.Time, cacheStatus string) {
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) observe(ctx context.Context, result *executor.SearchResult, cacheHit bool, start time.Time) {
	var top float64
	for _, r := range result.Results {
		top = max(top, r.Score)
	}
	outcome := "ok"
	switch {
	case len(result.Terms) == 0:
		outcome = "empty_query"
	case result.TotalHits == 0:
		outcome = "zero_result"
	}
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
		h.metrics.SearchCandidates.Observe(float64(result.TotalHits))
	}
	latency := time.Since(start)
	logger.FromContext(ctx).Info("search completed",
		"query", result.Query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"snapshot_version", result.SnapshotVersion,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Query:           result.Query,
			Terms:           result.Terms,
			Order:           string(result.Order),
			TotalHits:       result.TotalHits,
			Returned:        len(result.Results),
			TopScore:        top,
			LatencyMs:       latency.Milliseconds(),
			CacheHit:        cacheHit,
			SnapshotVersion: result.SnapshotVersion,
			Timestamp:       time.Now().UTC(),
			RequestID:       middleware.GetRequestID(ctx),
		})
	}
}

// Corpus serves GET /api/v1/corpus.
func (h *Handler) Corpus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.corpus.Current()
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Stats())
}

// Reload serves POST /api/v1/corpus/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.corpus.Reload(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("corpus reload failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Stats())
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate serves POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, query string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
	}
	logger.FromContext(r.Context()).Error("search execution failed", "query", query, "error", err, "status", status)
	h.writeError(w, status, apperrors.PublicMessage(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
