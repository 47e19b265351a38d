// Package executor coordinates a query: it runs boolean retrieval and
// TF-IDF scoring against the same snapshot and merges them into one result
// list.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/tracing"
)

// Order selects how results are arranged.
type Order string

const (
	OrderPosition Order = "position"
	OrderScore    Order = "score"
)

// ParseOrder maps a request value to an Order. The empty string means
// position order.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderPosition:
		return OrderPosition, nil
	case OrderScore:
		return OrderScore, nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidInput, 400, "order must be %q or %q", OrderPosition, OrderScore)
}

// Options shape the result list. A Limit of zero or less returns every
// candidate, subject to the executor's configured maximum.
type Options struct {
	Order Order
	Limit int
	// All returns every candidate, ignoring Limit and the configured
	// maximum.
	All bool
}

// Result is one candidate document with its similarity score.
type Result struct {
	Position       int     `json:"position"`
	DocumentNumber int     `json:"document_number"`
	ExternalID     string  `json:"id"`
	Summary        string  `json:"summary"`
	Score          float64 `json:"score"`
}

func (r Result) RankScore() float64 { return r.Score }
func (r Result) RankPosition() int  { return r.Position }

// SearchResult is the response to one query against one snapshot.
type SearchResult struct {
	Query           string   `json:"query"`
	Terms           []string `json:"terms"`
	Order           Order    `json:"order"`
	TotalHits       int      `json:"total_hits"`
	SnapshotVersion uint64   `json:"snapshot_version"`
	Results         []Result `json:"results"`
	// Scores holds the similarity of every document by position, candidates
	// or not.
	Scores  []float64          `json:"-"`
	Timings map[string]float64 `json:"timings_ms,omitempty"`
}

// Search runs plan against snap. TotalHits counts every boolean candidate;
// Results is ordered and truncated per opts.
func Search(plan *parser.QueryPlan, snap *indexer.Snapshot, opts Options) *SearchResult {
	return search(context.Background(), plan, snap, opts)
}

func search(ctx context.Context, plan *parser.QueryPlan, snap *indexer.Snapshot, opts Options) *SearchResult {
	_, boolSpan := tracing.StartChildSpan(ctx, "boolean")
	candidates := boolean.Retrieve(plan.Terms, snap.Index, snap.Store.Len())
	boolSpan.SetAttr("candidates", len(candidates))
	boolSpan.End()

	// A query with no index terms scores zero everywhere, even when a stop
	// word collides with a stemmed vocabulary entry.
	_, vecSpan := tracing.StartChildSpan(ctx, "vector")
	var scores []float64
	if len(plan.Terms) == 0 {
		scores = make([]float64, snap.Store.Len())
	} else {
		scores = snap.Model.Score(plan.ScoreText)
	}
	vecSpan.End()

	results := make([]Result, 0, len(candidates))
	for _, pos := range candidates {
		doc, _ := snap.Store.Document(pos)
		results = append(results, Result{
			Position:       pos,
			DocumentNumber: pos + 1,
			ExternalID:     doc.ExternalID,
			Summary:        doc.Summary,
			Score:          scores[pos],
		})
	}

	order := opts.Order
	if order == "" {
		order = OrderPosition
	}
	switch {
	case order == OrderScore:
		results = merger.TopK(results, opts.Limit)
	case opts.Limit > 0 && len(results) > opts.Limit:
		results = results[:opts.Limit]
	}

	return &SearchResult{
		Query:           plan.RawQuery,
		Terms:           plan.Terms,
		Order:           order,
		TotalHits:       len(candidates),
		SnapshotVersion: snap.Version,
		Results:         results,
		Scores:          scores,
	}
}

// Snapshots is implemented by *indexer.Engine.
type Snapshots interface {
	Current() (*indexer.Snapshot, error)
}

// Executor runs queries against the current snapshot.
type Executor struct {
	snapshots     Snapshots
	normalizer    tokenizer.Normalizer
	stemScoreText bool
	maxResults    int
	traced        bool
	logger        *slog.Logger
}

// New creates an Executor. The normalizer must be the one the snapshots were
// indexed with.
func New(snapshots Snapshots, n tokenizer.Normalizer, cfg config.SearchConfig, traced bool) *Executor {
	return &Executor{
		snapshots:     snapshots,
		normalizer:    n,
		stemScoreText: cfg.StemScoreQuery,
		maxResults:    cfg.MaxResults,
		traced:        traced,
		logger:        logger.WithComponent("query-executor"),
	}
}

// Execute validates and parses raw, then searches the current snapshot.
// Limits above the configured maximum are clamped unless opts.All is set.
func (e *Executor) Execute(ctx context.Context, raw string, opts Options) (*SearchResult, error) {
	if err := parser.Validate(raw); err != nil {
		return nil, err
	}
	snap, err := e.snapshots.Current()
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	switch {
	case opts.All:
		opts.Limit = 0
	case e.maxResults > 0 && (opts.Limit <= 0 || opts.Limit > e.maxResults):
		opts.Limit = e.maxResults
	}

	ctx, root := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	_, parseSpan := tracing.StartChildSpan(ctx, "parse")
	plan := parser.Parse(raw, e.normalizer, e.stemScoreText)
	parseSpan.SetAttr("terms", len(plan.Terms))
	parseSpan.End()

	result := search(ctx, plan, snap, opts)
	root.End()

	logger.FromContext(ctx).Debug("query executed",
		"query", raw,
		"terms", plan.Terms,
		"candidates", result.TotalHits,
		"returned", len(result.Results),
		"snapshot_version", snap.Version,
	)
	if e.traced {
		root.Log(e.logger)
		result.Timings = root.Timings()
	}
	return result, nil
}
