// Package boolean implements conjunctive retrieval over the inverted index.
package boolean

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/index"
)

// Retrieve returns the positions of documents containing every query term
// that appears in idx. Terms absent from the index do not narrow the result,
// so a query with no indexed terms matches the whole corpus. The result is
// sorted by position.
func Retrieve(terms []string, idx *index.Index, corpusSize int) index.PostingSet {
	sets := make([]index.PostingSet, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if ps, ok := idx.Postings(term); ok {
			sets = append(sets, ps)
		}
	}
	if len(sets) == 0 {
		return index.Universe(corpusSize)
	}

	sort.SliceStable(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })
	result := append(index.PostingSet(nil), sets[0]...)
	for _, ps := range sets[1:] {
		if len(result) == 0 {
			break
		}
		result = result.Intersect(ps)
	}
	return result
}
