package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
)

var requiredColumns = []string{"id", "article", "highlights"}

// CSVSource reads a headered CSV file. Columns are located by header name so
// extra columns and any column order are accepted.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

func (s *CSVSource) Records(ctx context.Context, limit int) ([]ingestion.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	slog.Default().With("component", "csv-source").Debug("csv read",
		"path", s.Path,
		"records", len(records),
		"limit", limit,
	)
	return records, nil
}

// ReadCSV parses records from r. Quoted fields may span lines.
func ReadCSV(ctx context.Context, r io.Reader, limit int) ([]ingestion.Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", apperrors.ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", apperrors.ErrMalformedRecord, err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var records []ingestion.Record
	for limit <= 0 || len(records) < limit {
		if len(records)%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %w", apperrors.ErrMalformedRecord, err)
			}
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
		}
		records = append(records, ingestion.Record{
			ID:         row[cols[0]],
			Article:    row[cols[1]],
			Highlights: row[cols[2]],
		})
	}
	return records, nil
}

func locateColumns(header []string) ([3]int, error) {
	var cols [3]int
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for i, name := range requiredColumns {
		pos, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[i] = pos
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: header missing columns %s", apperrors.ErrMalformedRecord, strings.Join(missing, ", "))
	}
	return cols, nil
}
