// Package publisher pushes corpus changes outward: it announces reload
// commands on Kafka and seeds the PostgreSQL articles table from another
// record source.
package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
)

// Publisher announces corpus reloads to every searcher.
type Publisher struct {
	producer kafka.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Publisher writing through producer.
func New(producer kafka.Publisher) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
		now:      time.Now,
	}
}

// RequestReload publishes a ReloadCommand. The reason is free text that ends
// up in searcher logs.
func (p *Publisher) RequestReload(ctx context.Context, reason, requestedBy string) (ingestion.ReloadCommand, error) {
	cmd := ingestion.ReloadCommand{
		Reason:      reason,
		RequestedBy: requestedBy,
		RequestedAt: p.now().UTC(),
	}
	err := p.producer.Publish(ctx, kafka.Event{
		Key:   "corpus",
		Type:  ingestion.ReloadEventType,
		Value: cmd,
	})
	if err != nil {
		return cmd, fmt.Errorf("publishing reload command: %w", err)
	}
	p.logger.Info("reload requested", "reason", reason, "requested_by", requestedBy)
	return cmd, nil
}

// Txer runs a function inside a database transaction.
type Txer interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Seeder replaces the contents of the articles table. The ord column keeps
// source order so PostgresSource reads rows back in the same positions.
type Seeder struct {
	db     Txer
	table  string
	logger *slog.Logger
}

// NewSeeder creates a Seeder for table.
func NewSeeder(db Txer, table string) *Seeder {
	return &Seeder{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "seeder", "table", table),
	}
}

// Statements returns the DDL and DML used by Seed.
func (s *Seeder) Statements() (create, truncate, insert string) {
	t := pq.QuoteIdentifier(s.table)
	create = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	ord        INTEGER PRIMARY KEY,
	id         TEXT NOT NULL,
	article    TEXT NOT NULL,
	highlights TEXT NOT NULL
)`, t)
	truncate = fmt.Sprintf(`TRUNCATE TABLE %s`, t)
	insert = fmt.Sprintf(`INSERT INTO %s (ord, id, article, highlights) VALUES ($1, $2, $3, $4)`, t)
	return create, truncate, insert
}

// Seed writes records in a single transaction, replacing existing rows.
func (s *Seeder) Seed(ctx context.Context, records []ingestion.Record) (int, error) {
	create, truncate, insert := s.Statements()
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, truncate); err != nil {
			return fmt.Errorf("truncating table: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, i, rec.ID, rec.Article, rec.Highlights); err != nil {
				return fmt.Errorf("inserting row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("table seeded", "rows", len(records))
	return len(records), nil
}
