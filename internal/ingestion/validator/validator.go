// Package validator checks corpus records before they enter the document
// store and reports every failing field of a row at once.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
)

const maxIDLength = 255

// ValidationError holds per-field validation failure messages for one row.
// Row is the zero-based record index in source order.
type ValidationError struct {
	Row    int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(parts, "; "))
}

// ValidateRecord returns a *ValidationError when rec is missing its id,
// article, or highlights, or when the id is unreasonably long.
func ValidateRecord(row int, rec ingestion.Record) error {
	errs := make(map[string]string)

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		errs["id"] = "id is required"
	} else if len(id) > maxIDLength {
		errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	}
	if strings.TrimSpace(rec.Article) == "" {
		errs["article"] = "article is required"
	}
	if strings.TrimSpace(rec.Highlights) == "" {
		errs["highlights"] = "highlights is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Row: row, Fields: errs}
	}
	return nil
}
