package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

const defaultTopQueries = 10

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	UnscoredCount     int64        `json:"unscored_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	UnscoredQueries   []QueryCount `json:"unscored_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
	Reloads           int64        `json:"reloads"`
	FailedReloads     int64        `json:"failed_reloads"`
	LastReload        *ReloadEvent `json:"last_reload,omitempty"`
	LastReloadFailure string       `json:"last_reload_failure,omitempty"`
	CapturedAt        time.Time    `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds analytics events into running statistics. A query with
// zero results matched present but disjoint terms; an unscored query had no
// vocabulary overlap with any candidate.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	unscored          int64
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	unscoredQueries   map[string]int64
	reloads           int64
	failedReloads     int64
	lastReload        *ReloadEvent
	lastFailure       string
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		unscoredQueries:   make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka handler feeding agg. Unknown or undecodable
// messages are logged and skipped.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch EventType(msg.Type) {
		case EventSearch:
			event, err := kafka.DecodeJSON[SearchEvent](msg.Value)
			if err != nil {
				agg.logger.Error("failed to decode search event", "error", err)
				return nil
			}
			agg.RecordSearch(event)
		case EventReload:
			event, err := kafka.DecodeJSON[ReloadEvent](msg.Value)
			if err != nil {
				agg.logger.Error("failed to decode reload event", "error", err)
				return nil
			}
			agg.RecordReload(event)
		default:
			agg.logger.Warn("unknown analytics event", "type", msg.Type, "key", string(msg.Key))
		}
		return nil
	}
}

// Restore seeds the counters from a persisted snapshot. Latency samples are
// not persisted, so percentiles restart empty.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches += stats.TotalSearches
	a.cacheHits += stats.CacheHits
	a.cacheMisses += stats.CacheMisses
	a.zeroResults += stats.ZeroResultCount
	a.unscored += stats.UnscoredCount
	a.reloads += stats.Reloads
	a.failedReloads += stats.FailedReloads
	if a.lastFailure == "" {
		a.lastFailure = stats.LastReloadFailure
	}
	if stats.LastReload != nil && (a.lastReload == nil || stats.LastReload.Version > a.lastReload.Version) {
		e := *stats.LastReload
		a.lastReload = &e
	}
	for _, qc := range stats.TopQueries {
		a.queryCounts[qc.Query] += qc.Count
	}
	for _, qc := range stats.ZeroResultQueries {
		a.zeroResultQueries[qc.Query] += qc.Count
	}
	for _, qc := range stats.UnscoredQueries {
		a.unscoredQueries[qc.Query] += qc.Count
	}
}

// Track records event directly, for deployments without Kafka.
func (a *Aggregator) Track(event Event) {
	switch e := event.(type) {
	case SearchEvent:
		a.RecordSearch(e)
	case ReloadEvent:
		a.RecordReload(e)
	}
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
	} else if event.TopScore == 0 {
		a.unscored++
		a.unscoredQueries[event.Query]++
	}
	if len(a.latencies) == maxLatencySamples {
		copy(a.latencies, a.latencies[1:])
		a.latencies = a.latencies[:maxLatencySamples-1]
	}
	a.latencies = append(a.latencies, event.LatencyMs)
}

func (a *Aggregator) RecordReload(event ReloadEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !event.Success {
		a.failedReloads++
		a.lastFailure = event.Error
		return
	}
	a.reloads++
	if a.lastReload == nil || event.Version >= a.lastReload.Version {
		e := event
		a.lastReload = &e
	}
}

// Stats returns the current aggregates with the ten most frequent queries in
// each ranking.
func (a *Aggregator) Stats() AggregatedStats { return a.StatsTop(defaultTopQueries) }

// StatsTop is Stats with n entries per query ranking.
func (a *Aggregator) StatsTop(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:     a.totalSearches,
		CacheHits:         a.cacheHits,
		CacheMisses:       a.cacheMisses,
		ZeroResultCount:   a.zeroResults,
		UnscoredCount:     a.unscored,
		Reloads:           a.reloads,
		FailedReloads:     a.failedReloads,
		LastReloadFailure: a.lastFailure,
		CapturedAt:        time.Now().UTC(),
	}
	if a.lastReload != nil {
		e := *a.lastReload
		stats.LastReload = &e
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, n)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, n)
	stats.UnscoredQueries = topN(a.unscoredQueries, n)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
