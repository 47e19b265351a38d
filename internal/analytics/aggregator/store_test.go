package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics"
)

type recordingDB struct {
	queries []string
	args    [][]any
	err     error
}

func (r *recordingDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	return nil, r.err
}

func (r *recordingDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("not used")
}

func TestSaveSnapshot(t *testing.T) {
	db := &recordingDB{}
	store := NewStore(db)
	captured := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	stats := analytics.AggregatedStats{TotalSearches: 12, Reloads: 2, CapturedAt: captured}

	if err := store.SaveSnapshot(context.Background(), stats); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if len(db.queries) != 1 || !strings.Contains(db.queries[0], "INSERT INTO analytics_snapshots") {
		t.Fatalf("queries = %v", db.queries)
	}
	var decoded analytics.AggregatedStats
	if err := json.Unmarshal(db.args[0][0].([]byte), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TotalSearches != 12 || decoded.Reloads != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if db.args[0][1].(time.Time) != captured {
		t.Errorf("captured_at = %v", db.args[0][1])
	}
}

func TestSaveSnapshotError(t *testing.T) {
	boom := errors.New("db down")
	err := NewStore(&recordingDB{err: boom}).SaveSnapshot(context.Background(), analytics.AggregatedStats{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := &recordingDB{}
	if err := NewStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(db.queries[0], "CREATE TABLE IF NOT EXISTS analytics_snapshots") {
		t.Errorf("query = %s", db.queries[0])
	}
}
