package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
)

// Querier is the subset of *sql.DB used by PostgresSource.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresSource reads records from a table with ord, id, article and
// highlights columns, ordered by ord.
type PostgresSource struct {
	DB    Querier
	Table string
}

func (s *PostgresSource) Name() string { return "postgres:" + s.Table }

// Query returns the SELECT statement issued by Records.
func (s *PostgresSource) Query() string {
	return fmt.Sprintf(`SELECT id, article, highlights FROM %s ORDER BY ord LIMIT $1`, pq.QuoteIdentifier(s.Table))
}

func (s *PostgresSource) Records(ctx context.Context, limit int) ([]ingestion.Record, error) {
	// LIMIT NULL is treated as no limit.
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := s.DB.QueryContext(ctx, s.Query(), lim)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %w", apperrors.ErrSourceUnavailable, s.Table, err)
	}
	defer rows.Close()

	var records []ingestion.Record
	for rows.Next() {
		var id, article, highlights sql.NullString
		if err := rows.Scan(&id, &article, &highlights); err != nil {
			return nil, fmt.Errorf("%w: scanning row %d: %w", apperrors.ErrMalformedRecord, len(records), err)
		}
		records = append(records, ingestion.Record{
			ID:         id.String,
			Article:    article.String,
			Highlights: highlights.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %w", apperrors.ErrSourceUnavailable, s.Table, err)
	}
	return records, nil
}
