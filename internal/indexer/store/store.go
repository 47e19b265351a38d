// Package store holds the ordered documents of one corpus snapshot. Positions
// are assigned in source order starting at zero and never change for the
// lifetime of the store.
package store

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
)

// Document is one loaded article.
type Document struct {
	Position   int
	ExternalID string
	RawText    string
	Summary    string
	// Terms is the normalized term sequence, filled in while the index is
	// built.
	Terms []string
}

// Store is an ordered, position-addressed collection of documents.
type Store struct {
	docs []Document
}

// Load validates records and builds a store from the first limit of them. A
// limit of zero or less keeps every record. Any invalid record fails the
// whole load with ErrMalformedRecord.
func Load(records []ingestion.Record, limit int) (*Store, error) {
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	docs := make([]Document, len(records))
	for i, rec := range records {
		if err := validator.ValidateRecord(i, rec); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrMalformedRecord, err)
		}
		docs[i] = Document{
			Position:   i,
			ExternalID: rec.ID,
			RawText:    rec.Article,
			Summary:    rec.Highlights,
		}
	}
	return &Store{docs: docs}, nil
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.docs) }

// Document returns the document at pos.
func (s *Store) Document(pos int) (Document, bool) {
	if pos < 0 || pos >= len(s.docs) {
		return Document{}, false
	}
	return s.docs[pos], true
}

// Documents returns every document in position order. The slice is shared
// and must not be modified.
func (s *Store) Documents() []Document { return s.docs }

// SetTerms records the normalized terms of the document at pos. It is only
// called while the owning snapshot is being built.
func (s *Store) SetTerms(pos int, terms []string) {
	s.docs[pos].Terms = terms
}
