package query

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Ranked returns up to k documents best matching raw by cosine similarity,
// best first. Terms missing from the index are skipped and repeated terms
// count once per occurrence. It fails with ErrInvalidState when the
// weights are not finalized.
func Ranked(src RankedSource, raw string, k int) ([]ranker.ScoredDoc, error) {
	if !src.Finalized() {
		return nil, apperrors.InvalidState("ranked search before weights were finalized")
	}
	terms, err := src.Tokenizer().Tokenize(raw)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []ranker.ScoredDoc{}, nil
	}

	lists := make([]index.PostingList[index.WeightedPosting], 0, len(terms))
	for _, term := range terms {
		if list, ok := src.Postings(term); ok {
			lists = append(lists, list)
		}
	}
	scored, err := ranker.Score(lists, src.DocumentCount(), src.DocLength)
	if err != nil {
		return nil, err
	}
	return merger.TopK(scored, k), nil
}
