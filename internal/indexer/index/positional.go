package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
)

// PositionalIndex maps each term to the positions it occupies in every
// document. It backs boolean and phrase queries. It is not safe for
// concurrent mutation.
type PositionalIndex struct {
	table[PositionalPosting]
}

func NewPositionalIndex(tok tokenizer.Tokenizer) *PositionalIndex {
	return &PositionalIndex{table: newTable[PositionalPosting](tok)}
}

// Ingest stores text, tokenizes it and merges its terms into the postings
// lists, returning the new document's id.
func (x *PositionalIndex) Ingest(text string) (DocID, error) {
	return x.ingest(text, openPositional, extendPositional)
}

// IngestTerms is Ingest for text that was already tokenized with the
// index's Tokenizer.
func (x *PositionalIndex) IngestTerms(text string, terms []string) DocID {
	return x.ingestTerms(text, terms, openPositional, extendPositional)
}

func (x *PositionalIndex) Snapshot() Snapshot[PositionalPosting] {
	return x.snapshot()
}

// RestorePositional rebuilds an index from a snapshot taken with the same
// tokenizer configuration.
func RestorePositional(tok tokenizer.Tokenizer, snap Snapshot[PositionalPosting]) (*PositionalIndex, error) {
	x := NewPositionalIndex(tok)
	if err := x.restore(snap, checkPositional); err != nil {
		return nil, fmt.Errorf("restoring positional index: %w", err)
	}
	return x, nil
}

func openPositional(doc DocID, pos int) PositionalPosting {
	return PositionalPosting{DocID: doc, Positions: []int{pos}}
}

func extendPositional(p *PositionalPosting, pos int) {
	p.Positions = append(p.Positions, pos)
}

func checkPositional(p PositionalPosting) error {
	if len(p.Positions) == 0 {
		return fmt.Errorf("empty position list")
	}
	prev := 0
	for _, pos := range p.Positions {
		if pos <= prev {
			return fmt.Errorf("positions not strictly ascending from 1")
		}
		prev = pos
	}
	return nil
}
