package source

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/postgres"
)

// Open builds the Source selected by cfg.Corpus.Source. The returned close
// function releases any connection the source holds and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Source, func() error, error) {
	switch cfg.Corpus.Source {
	case config.SourceCSV:
		return &CSVSource{Path: cfg.Corpus.Path}, func() error { return nil }, nil
	case config.SourcePostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
		}
		return &PostgresSource{DB: client.DB, Table: cfg.Corpus.Table}, client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
}
