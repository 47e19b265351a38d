// Package merger orders search results by score.
package merger

import (
	"container/heap"
	"sort"
)

// Ranked is implemented by result types that can be ordered by score with
// position as the tie-break.
type Ranked interface {
	RankScore() float64
	RankPosition() int
}

// before reports whether a ranks ahead of b: higher score first, then lower
// position.
func before[T Ranked](a, b T) bool {
	if a.RankScore() != b.RankScore() {
		return a.RankScore() > b.RankScore()
	}
	return a.RankPosition() < b.RankPosition()
}

// TopK returns the k best items in rank order. A k of zero or less ranks
// every item. The input is not modified.
func TopK[T Ranked](items []T, k int) []T {
	if k <= 0 || k >= len(items) {
		out := append([]T(nil), items...)
		sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })
		return out
	}
	h := &worstFirst[T]{}
	for _, it := range items {
		heap.Push(h, it)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]T, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(T)
	}
	return out
}

// worstFirst is a min-heap on rank, so the root is the item to evict.
type worstFirst[T Ranked] []T

func (h worstFirst[T]) Len() int           { return len(h) }
func (h worstFirst[T]) Less(i, j int) bool { return before(h[j], h[i]) }
func (h worstFirst[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst[T]) Push(x any) { *h = append(*h, x.(T)) }

func (h *worstFirst[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
