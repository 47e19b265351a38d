package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
)

const sampleCSV = `id,article,highlights
a1,"The cat sat on the mat","cat on mat"
a2,"Dogs chase cats
across the yard","dogs chase cats"
a3,Zebras are striped,stripes
`

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{"no limit", 0, []string{"a1", "a2", "a3"}},
		{"negative limit", -1, []string{"a1", "a2", "a3"}},
		{"limit truncates", 2, []string{"a1", "a2"}},
		{"limit above rows", 10, []string{"a1", "a2", "a3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV), tt.limit)
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if len(recs) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(recs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if recs[i].ID != id {
					t.Errorf("record %d id = %q, want %q", i, recs[i].ID, id)
				}
			}
		})
	}
}

func TestReadCSVMultilineField(t *testing.T) {
	recs, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV), 0)
	if err != nil {
		t.Fatal(err)
	}
	if recs[1].Article != "Dogs chase cats\nacross the yard" {
		t.Errorf("article = %q", recs[1].Article)
	}
}

func TestReadCSVColumnOrderAndExtras(t *testing.T) {
	in := "\ufeffHighlights,extra,ID,Article\nh1,x,id1,body one\n"
	recs, err := ReadCSV(context.Background(), strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := ingestion.Record{ID: "id1", Article: "body one", Highlights: "h1"}
	if len(recs) != 1 || recs[0] != want {
		t.Errorf("records = %+v, want %+v", recs, want)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty file", ""},
		{"missing column", "id,article\n1,x\n"},
		{"ragged row", "id,article,highlights\n1,x\n"},
		{"bad quote", "id,article,highlights\n1,\"x\"y,z\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.in), 0)
			if !errors.Is(err, apperrors.ErrMalformedRecord) {
				t.Fatalf("err = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestCSVSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	src := &CSVSource{Path: path}
	recs, err := src.Records(context.Background(), 1)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "a1" {
		t.Errorf("records = %+v", recs)
	}
	if !strings.HasPrefix(src.Name(), "csv:") {
		t.Errorf("name = %q", src.Name())
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := &CSVSource{Path: filepath.Join(t.TempDir(), "nope.csv")}
	_, err := src.Records(context.Background(), 0)
	if !errors.Is(err, apperrors.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if apperrors.HTTPStatusCode(err) != 503 {
		t.Errorf("status = %d, want 503", apperrors.HTTPStatusCode(err))
	}
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Items: []ingestion.Record{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	recs, err := src.Records(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	recs[0].ID = "mutated"
	if src.Items[0].ID != "1" {
		t.Error("Records leaked the backing slice")
	}
	if src.Name() != "static" {
		t.Errorf("name = %q", src.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Records(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPostgresSourceQuery(t *testing.T) {
	src := &PostgresSource{Table: "articles"}
	want := `SELECT id, article, highlights FROM "articles" ORDER BY ord LIMIT $1`
	if got := src.Query(); got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
	if src.Name() != "postgres:articles" {
		t.Errorf("name = %q", src.Name())
	}
}

type failingQuerier struct{ err error }

func (f failingQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, f.err
}

func TestPostgresSourceUnavailable(t *testing.T) {
	src := &PostgresSource{DB: failingQuerier{err: errors.New("connection refused")}, Table: "articles"}
	_, err := src.Records(context.Background(), 10)
	if !errors.Is(err, apperrors.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestOpenCSVAndUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.Source = config.SourceCSV
	cfg.Corpus.Path = "articles.csv"
	src, closeFn, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if src.Name() != "csv:articles.csv" || closeFn() != nil {
		t.Errorf("source = %s", src.Name())
	}

	cfg.Corpus.Source = "s3"
	if _, _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
