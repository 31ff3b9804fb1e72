package index

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// WeightedIndex maps each term to per-document occurrence counts which
// FinalizeWeights turns into TF-IDF weights. It backs ranked retrieval.
//
// Lifecycle: Ingest any number of times, then FinalizeWeights exactly once.
// After finalization the index is read-only.
type WeightedIndex struct {
	table[WeightedPosting]
	finalized bool
	lengths   []float64
}

func NewWeightedIndex(tok tokenizer.Tokenizer) *WeightedIndex {
	return &WeightedIndex{table: newTable[WeightedPosting](tok)}
}

// Ingest stores text and merges its term counts into the postings lists.
// It fails with ErrInvalidState once the index is finalized.
func (x *WeightedIndex) Ingest(text string) (DocID, error) {
	if x.finalized {
		return 0, apperrors.InvalidState("ingest after weights were finalized")
	}
	return x.ingest(text, openWeighted, extendWeighted)
}

// IngestTerms is Ingest for text that was already tokenized with the
// index's Tokenizer.
func (x *WeightedIndex) IngestTerms(text string, terms []string) (DocID, error) {
	if x.finalized {
		return 0, apperrors.InvalidState("ingest after weights were finalized")
	}
	return x.ingestTerms(text, terms, openWeighted, extendWeighted), nil
}

// FinalizeWeights overwrites every posting's Weight with its TF-IDF weight
// and computes each document's Euclidean length. A second call fails with
// ErrInvalidState.
func (x *WeightedIndex) FinalizeWeights() error {
	if x.finalized {
		return apperrors.InvalidState("weights already finalized")
	}
	n := x.store.Len()
	sums := make([]float64, n)
	for _, list := range x.lists {
		idf := IDF(n, len(list))
		for i := range list {
			w := TFIDF(list[i].Count, idf)
			list[i].Weight = w
			sums[list[i].DocID] += w * w
		}
	}
	for i := range sums {
		sums[i] = math.Sqrt(sums[i])
	}
	x.lengths = sums
	x.finalized = true
	return nil
}

func (x *WeightedIndex) Finalized() bool { return x.finalized }

// DocLength returns the Euclidean length of document id's TF-IDF vector.
func (x *WeightedIndex) DocLength(id DocID) (float64, error) {
	if !x.finalized {
		return 0, apperrors.InvalidState("document lengths requested before finalization")
	}
	if id < 0 || int(id) >= len(x.lengths) {
		return 0, fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	return x.lengths[id], nil
}

// WeightedSnapshot adds the finalization state to a Snapshot.
type WeightedSnapshot struct {
	Snapshot[WeightedPosting]
	Finalized bool      `json:"finalized"`
	Lengths   []float64 `json:"lengths,omitempty"`
}

func (x *WeightedIndex) Snapshot() WeightedSnapshot {
	snap := WeightedSnapshot{Snapshot: x.snapshot(), Finalized: x.finalized}
	if x.finalized {
		snap.Lengths = append([]float64(nil), x.lengths...)
	}
	return snap
}

// RestoreWeighted rebuilds an index from a snapshot taken with the same
// tokenizer configuration.
func RestoreWeighted(tok tokenizer.Tokenizer, snap WeightedSnapshot) (*WeightedIndex, error) {
	x := NewWeightedIndex(tok)
	if err := x.restore(snap.Snapshot, checkWeighted); err != nil {
		return nil, fmt.Errorf("restoring weighted index: %w", err)
	}
	if snap.Finalized {
		if len(snap.Lengths) != x.store.Len() {
			return nil, fmt.Errorf("restoring weighted index: %d lengths for %d documents", len(snap.Lengths), x.store.Len())
		}
		x.lengths = snap.Lengths
		x.finalized = true
	}
	return x, nil
}

func openWeighted(doc DocID, _ int) WeightedPosting {
	return WeightedPosting{DocID: doc, Count: 1, Weight: 1}
}

func extendWeighted(p *WeightedPosting, _ int) {
	p.Count++
	p.Weight = float64(p.Count)
}

func checkWeighted(p WeightedPosting) error {
	if p.Count < 1 {
		return fmt.Errorf("non-positive count %d", p.Count)
	}
	return nil
}
