package query

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

// BooleanAnd returns, in ascending order, the ids of the documents that
// contain every term of raw. A term missing from the index, or a query
// without terms, yields an empty result.
//
// Lists are intersected rarest first; the order does not change the result.
func BooleanAnd[P index.Posting](src Source[P], raw string) ([]index.DocID, error) {
	terms, err := src.Tokenizer().Tokenize(raw)
	if err != nil {
		return nil, err
	}
	lists, ok := lookupAll(src, terms)
	if !ok || len(lists) == 0 {
		return []index.DocID{}, nil
	}
	sort.SliceStable(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })

	acc := lists[0]
	for _, list := range lists[1:] {
		acc = MergeIntersect(acc, list)
		if len(acc) == 0 {
			break
		}
	}
	return acc.DocIDs(), nil
}

// PositionalAnd returns the ids of the documents that contain the terms of
// raw as a contiguous phrase, in query order. A single-term query matches
// every document containing the term.
func PositionalAnd(src Source[index.PositionalPosting], raw string) ([]index.DocID, error) {
	terms, err := src.Tokenizer().Tokenize(raw)
	if err != nil {
		return nil, err
	}
	lists, ok := lookupAll(src, terms)
	if !ok || len(lists) == 0 {
		return []index.DocID{}, nil
	}

	acc := lists[0]
	for _, list := range lists[1:] {
		acc = PositionalIntersect(acc, list)
		if len(acc) == 0 {
			break
		}
	}
	return acc.DocIDs(), nil
}
