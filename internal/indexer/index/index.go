// Package index builds the inverted index of a corpus snapshot: a map from
// normalized term to the sorted positions of the documents containing it.
// An index is built once per load and is read-only afterwards.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
)

// Index maps each normalized term to the posting set of one snapshot.
type Index struct {
	postings map[string]PostingSet
	terms    []string
	numDocs  int
}

// Build normalizes every document in st, records the terms on the document,
// and indexes each distinct term. Documents are visited in position order,
// so appending keeps every posting set sorted.
func Build(st *store.Store, n tokenizer.Normalizer) *Index {
	idx := &Index{
		postings: make(map[string]PostingSet),
		numDocs:  st.Len(),
	}
	for _, doc := range st.Documents() {
		terms := n.Normalize(doc.RawText)
		st.SetTerms(doc.Position, terms)

		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			idx.postings[term] = append(idx.postings[term], doc.Position)
		}
	}
	idx.terms = make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		idx.terms = append(idx.terms, term)
	}
	sort.Strings(idx.terms)
	return idx
}

// Postings returns the posting set of term. The returned slice is shared and
// must not be modified.
func (idx *Index) Postings(term string) (PostingSet, bool) {
	ps, ok := idx.postings[term]
	return ps, ok
}

// Terms returns the indexed terms in sorted order.
func (idx *Index) Terms() []string { return idx.terms }

// NumDocs is the corpus size the index was built over, including documents
// that produced no terms.
func (idx *Index) NumDocs() int { return idx.numDocs }

// NumTerms is the number of distinct indexed terms.
func (idx *Index) NumTerms() int { return len(idx.postings) }
