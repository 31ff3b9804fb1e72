// Package ranker scores documents against a query in the TF-IDF vector
// space model.
package ranker

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

type ScoredDoc struct {
	DocID index.DocID `json:"doc_id"`
	Score float64     `json:"score"`
	// TermFreq is the summed raw frequency of the query terms in the
	// document; it only breaks score ties.
	TermFreq int `json:"term_freq"`
}

// LengthFunc returns the Euclidean length of a document's weight vector.
type LengthFunc func(index.DocID) (float64, error)

// Score accumulates, for every document in any of the lists, the dot
// product of its finalized TF-IDF weights with the query weights, then
// divides by the document length. The query vector is not normalised: it
// is constant per query and does not change the order.
//
// Each list contributes once, with query term frequency 1, so the query
// weight of a term is its IDF. Documents with a zero-length vector score 0.
// The result is unordered.
func Score(lists []index.PostingList[index.WeightedPosting], totalDocs int, length LengthFunc) ([]ScoredDoc, error) {
	acc := make(map[index.DocID]*ScoredDoc)
	order := make([]index.DocID, 0)
	for _, list := range lists {
		qw := index.TFIDF(1, index.IDF(totalDocs, len(list)))
		for _, p := range list {
			sd, ok := acc[p.DocID]
			if !ok {
				sd = &ScoredDoc{DocID: p.DocID}
				acc[p.DocID] = sd
				order = append(order, p.DocID)
			}
			sd.Score += p.Weight * qw
			sd.TermFreq += p.Count
		}
	}
	result := make([]ScoredDoc, 0, len(order))
	for _, id := range order {
		sd := acc[id]
		l, err := length(id)
		if err != nil {
			return nil, err
		}
		if l == 0 {
			sd.Score = 0
		} else {
			sd.Score /= l
		}
		result = append(result, *sd)
	}
	return result, nil
}

// Less orders by score descending, then term frequency descending, then
// document id ascending. It is a strict total order over distinct ids.
func Less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TermFreq != b.TermFreq {
		return a.TermFreq > b.TermFreq
	}
	return a.DocID < b.DocID
}
