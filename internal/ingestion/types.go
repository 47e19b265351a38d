// Package ingestion defines the corpus record shape shared by every record
// source and the Kafka command that asks searchers to rebuild their snapshot.
package ingestion

import "time"

// Record is one row of the article corpus as read from a source. Fields are
// copied verbatim; validation happens when the document store is built.
type Record struct {
	ID         string `json:"id"`
	Article    string `json:"article"`
	Highlights string `json:"highlights"`
}

// ReloadEventType is the Kafka type header carried by ReloadCommand messages.
const ReloadEventType = "corpus.reload"

// ReloadCommand is published to the corpus-reload topic. Every searcher that
// consumes it re-reads its configured source and swaps in a new snapshot.
type ReloadCommand struct {
	Reason      string    `json:"reason,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
