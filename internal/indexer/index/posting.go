package index

// PostingSet is a strictly increasing list of document positions.
type PostingSet []int

// Universe returns the posting set {0, ..., n-1}.
func Universe(n int) PostingSet {
	if n <= 0 {
		return PostingSet{}
	}
	ps := make(PostingSet, n)
	for i := range ps {
		ps[i] = i
	}
	return ps
}

// Contains reports whether pos is in the set.
func (ps PostingSet) Contains(pos int) bool {
	lo, hi := 0, len(ps)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case ps[mid] == pos:
			return true
		case ps[mid] < pos:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}

// Intersect returns the positions present in both sets. Neither input is
// modified.
func (ps PostingSet) Intersect(other PostingSet) PostingSet {
	out := make(PostingSet, 0, min(len(ps), len(other)))
	i, j := 0, 0
	for i < len(ps) && j < len(other) {
		switch {
		case ps[i] == other[j]:
			out = append(out, ps[i])
			i++
			j++
		case ps[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return out
}
