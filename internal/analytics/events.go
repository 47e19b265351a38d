// Package analytics collects search and reload events from searchers,
// publishes them to Kafka in batches, and aggregates them into query and
// corpus statistics on the consuming side.
package analytics

import "time"

type EventType string

const (
	EventSearch EventType = "search"
	EventReload EventType = "reload"
)

// Event is anything the collector can publish.
type Event interface {
	EventType() EventType
}

type SearchEvent struct {
	Query           string    `json:"query"`
	Terms           []string  `json:"terms"`
	Order           string    `json:"order"`
	TotalHits       int       `json:"total_hits"`
	Returned        int       `json:"returned"`
	TopScore        float64   `json:"top_score"`
	LatencyMs       int64     `json:"latency_ms"`
	CacheHit        bool      `json:"cache_hit"`
	SnapshotVersion uint64    `json:"snapshot_version"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id"`
}

func (SearchEvent) EventType() EventType { return EventSearch }

type ReloadEvent struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Version    uint64    `json:"version"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Vocabulary int       `json:"vocabulary"`
	BuildMs    int64     `json:"build_ms"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

func (ReloadEvent) EventType() EventType { return EventReload }
