// Package source reads corpus records from CSV files, PostgreSQL tables, or
// memory. Every implementation returns records in source order and honours a
// row limit, so the first limit rows are the same regardless of backend.
package source

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
)

// Source yields the corpus records for one snapshot build.
type Source interface {
	// Name identifies the source in logs and corpus stats.
	Name() string
	// Records returns at most limit records in source order. A limit of zero
	// or less means every record.
	Records(ctx context.Context, limit int) ([]ingestion.Record, error)
}

// StaticSource serves a fixed slice of records.
type StaticSource struct {
	Label string
	Items []ingestion.Record
}

func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *StaticSource) Records(ctx context.Context, limit int) ([]ingestion.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(s.Items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ingestion.Record, n)
	copy(out, s.Items[:n])
	return out, nil
}
