package query

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

// MergeIntersect returns the postings of b whose document also appears in
// a. Both lists must be sorted by document id. It runs in O(|a|+|b|).
func MergeIntersect[P index.Posting](a, b index.PostingList[P]) index.PostingList[P] {
	out := make(index.PostingList[P], 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		da, db := a[i].Doc(), b[j].Doc()
		switch {
		case da < db:
			i++
		case da > db:
			j++
		default:
			out = append(out, b[j])
			i++
			j++
		}
	}
	return out
}

// PositionalIntersect returns, for each document where some position of b
// directly follows a position of a, the posting of b restricted to those
// following positions. Chaining the result into the next call therefore
// matches contiguous phrases.
func PositionalIntersect(a, b index.PostingList[index.PositionalPosting]) index.PostingList[index.PositionalPosting] {
	out := make(index.PostingList[index.PositionalPosting], 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].DocID < b[j].DocID:
			i++
		case a[i].DocID > b[j].DocID:
			j++
		default:
			if next := adjacent(a[i].Positions, b[j].Positions); len(next) > 0 {
				out = append(out, index.PositionalPosting{DocID: b[j].DocID, Positions: next})
			}
			i++
			j++
		}
	}
	return out
}

// adjacent returns the positions of pb equal to some position of pa plus
// one. Both inputs are strictly ascending.
func adjacent(pa, pb []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(pa) && j < len(pb) {
		want := pa[i] + 1
		switch {
		case pb[j] < want:
			j++
		case pb[j] > want:
			i++
		default:
			out = append(out, pb[j])
			i++
			j++
		}
	}
	return out
}
