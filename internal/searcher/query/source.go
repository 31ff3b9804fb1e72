// Package query implements boolean AND, phrase and ranked retrieval over
// the postings lists of an index.
//
// The functions are stateless and never mutate the index they read. A
// Source's tokenizer must be the one the index was built with.
package query

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
)

// Source is the read side of an index as seen by the query algorithms.
type Source[P index.Posting] interface {
	Tokenizer() tokenizer.Tokenizer
	Postings(term string) (index.PostingList[P], bool)
}

// RankedSource is a weighted index that can report corpus statistics.
type RankedSource interface {
	Source[index.WeightedPosting]
	DocumentCount() int
	Finalized() bool
	DocLength(id index.DocID) (float64, error)
}

var (
	_ Source[index.PositionalPosting] = (*index.PositionalIndex)(nil)
	_ RankedSource                    = (*index.WeightedIndex)(nil)
)

// lookupAll fetches the postings list of every term. ok is false as soon
// as one term is missing.
func lookupAll[P index.Posting](src Source[P], terms []string) ([]index.PostingList[P], bool) {
	lists := make([]index.PostingList[P], 0, len(terms))
	for _, term := range terms {
		list, ok := src.Postings(term)
		if !ok {
			return nil, false
		}
		lists = append(lists, list)
	}
	return lists, true
}
