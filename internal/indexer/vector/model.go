// Package vector implements the TF-IDF vector space model used to score
// documents against a query.
//
// Weights follow the smoothed scheme: idf(t) = ln((1+N)/(1+df(t))) + 1, a
// document weight is raw count times idf, and every document row is scaled
// to unit length. Scores are cosine similarities between the unit query
// vector and each document row.
package vector

import (
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
)

type entry struct {
	pos    int
	weight float64
}

// Model is a fitted TF-IDF matrix stored column by column, so scoring only
// touches the columns of terms present in the query.
type Model struct {
	vocab   map[string]int
	idf     []float64
	columns [][]entry
	numDocs int
}

// Fit builds the model over the normalized terms of every document in st.
// The store's terms must already be populated by the index build.
func Fit(st *store.Store) *Model {
	docs := st.Documents()
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, tok := range tokenizer.Tokenize(strings.Join(doc.Terms, " ")) {
			c[tok]++
		}
		for term := range c {
			df[term]++
		}
		counts[i] = c
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &Model{
		vocab:   make(map[string]int, len(terms)),
		idf:     make([]float64, len(terms)),
		columns: make([][]entry, len(terms)),
		numDocs: len(docs),
	}
	n := float64(len(docs))
	for col, term := range terms {
		m.vocab[term] = col
		m.idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	for pos, c := range counts {
		if len(c) == 0 {
			continue
		}
		cols := make([]int, 0, len(c))
		for term := range c {
			cols = append(cols, m.vocab[term])
		}
		sort.Ints(cols)

		weights := make([]float64, len(cols))
		var sumSq float64
		for i, col := range cols {
			w := float64(c[terms[col]]) * m.idf[col]
			weights[i] = w
			sumSq += w * w
		}
		norm := math.Sqrt(sumSq)
		for i, col := range cols {
			m.columns[col] = append(m.columns[col], entry{pos: pos, weight: weights[i] / norm})
		}
	}
	return m
}

// Score returns the cosine similarity of query against every document, indexed
// by position. Query tokens outside the vocabulary are ignored; a query with
// no known tokens scores zero everywhere.
func (m *Model) Score(query string) []float64 {
	scores := make([]float64, m.numDocs)

	counts := make(map[int]int)
	for _, tok := range tokenizer.Tokenize(query) {
		if col, ok := m.vocab[tok]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return scores
	}

	cols := make([]int, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	weights := make([]float64, len(cols))
	var sumSq float64
	for i, col := range cols {
		w := float64(counts[col]) * m.idf[col]
		weights[i] = w
		sumSq += w * w
	}
	norm := math.Sqrt(sumSq)

	for i, col := range cols {
		qw := weights[i] / norm
		for _, e := range m.columns[col] {
			scores[e.pos] += qw * e.weight
		}
	}
	for i, s := range scores {
		scores[i] = clamp(s)
	}
	return scores
}

// VocabularySize is the number of distinct terms in the fitted vocabulary.
func (m *Model) VocabularySize() int { return len(m.idf) }

// IDF returns the inverse document frequency weight of term.
func (m *Model) IDF(term string) (float64, bool) {
	col, ok := m.vocab[term]
	if !ok {
		return 0, false
	}
	return m.idf[col], true
}

// NumDocs is the number of document rows in the model.
func (m *Model) NumDocs() int { return m.numDocs }

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
