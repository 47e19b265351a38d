// Package parser turns a raw query string into the plan the executor runs:
// the distinct normalized terms for boolean retrieval and the text handed to
// the similarity scorer.
package parser

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
)

// MaxQueryLength bounds the raw query in runes.
const MaxQueryLength = 1024

// QueryPlan is a parsed query, ready for the executor.
type QueryPlan struct {
	RawQuery string
	// Terms are the distinct normalized query terms in sorted order.
	Terms []string
	// ScoreText is what the TF-IDF model tokenizes.
	ScoreText string
}

// Parse normalizes raw with n. When stemScoreText is set the scorer sees the
// stemmed terms joined by spaces instead of the raw text. Parse never fails;
// an empty or stop-word-only query yields an empty term list.
func Parse(raw string, n tokenizer.Normalizer, stemScoreText bool) *QueryPlan {
	normalized := n.Normalize(raw)

	seen := make(map[string]struct{}, len(normalized))
	terms := make([]string, 0, len(normalized))
	for _, term := range normalized {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	sort.Strings(terms)

	plan := &QueryPlan{RawQuery: raw, Terms: terms, ScoreText: raw}
	if stemScoreText {
		plan.ScoreText = strings.Join(normalized, " ")
	}
	return plan
}

// Validate rejects queries the service refuses to run.
func Validate(raw string) error {
	if !utf8.ValidString(raw) {
		return apperrors.New(apperrors.ErrInvalidInput, 400, "query is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(raw); n > MaxQueryLength {
		return apperrors.Newf(apperrors.ErrInvalidInput, 400, "query is %d characters, limit is %d", n, MaxQueryLength)
	}
	return nil
}
