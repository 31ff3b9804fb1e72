package index

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

var errBoom = errors.New("tokenizer exploded")

type failingTokenizer struct{}

func (failingTokenizer) Tokenize(string) ([]string, error) { return nil, errBoom }

func ingestAll(t *testing.T, ingest func(string) (DocID, error), docs ...string) {
	t.Helper()
	for i, d := range docs {
		id, err := ingest(d)
		require.NoError(t, err)
		require.Equal(t, DocID(i), id)
	}
}

func TestPositionalIngest(t *testing.T) {
	x := NewPositionalIndex(tokenizer.New(tokenizer.BooleanOptions()))
	ingestAll(t, x.Ingest, "the cat sat", "the dog sat", "cats and dogs")

	cat, ok := x.Postings("cat")
	require.True(t, ok)
	assert.Equal(t, PostingList[PositionalPosting]{
		{DocID: 0, Positions: []int{1}},
		{DocID: 2, Positions: []int{1}},
	}, cat)

	sat, ok := x.Postings("sat")
	require.True(t, ok)
	assert.Equal(t, []DocID{0, 1}, sat.DocIDs())

	_, ok = x.Postings("fish")
	assert.False(t, ok)

	assert.Equal(t, 3, x.DocumentCount())
	assert.Equal(t, 3, x.TermCount())
	text, ok := x.Document(2)
	require.True(t, ok)
	assert.Equal(t, "cats and dogs", text)
	_, ok = x.Document(3)
	assert.False(t, ok)
}

func TestPositionalRepeatedTermUpdatesPosting(t *testing.T) {
	x := NewPositionalIndex(tokenizer.New(tokenizer.Options{}))
	ingestAll(t, x.Ingest, "a b a", "b a")

	a, ok := x.Postings("a")
	require.True(t, ok)
	assert.Equal(t, PostingList[PositionalPosting]{
		{DocID: 0, Positions: []int{1, 3}},
		{DocID: 1, Positions: []int{2}},
	}, a)
}

func TestIngestPropagatesTokenizerError(t *testing.T) {
	x := NewPositionalIndex(failingTokenizer{})
	_, err := x.Ingest("anything")
	assert.Same(t, errBoom, err)
	assert.Zero(t, x.DocumentCount())

	w := NewWeightedIndex(failingTokenizer{})
	_, err = w.Ingest("anything")
	assert.Same(t, errBoom, err)
	assert.Zero(t, w.DocumentCount())
}

func TestWeightedFinalize(t *testing.T) {
	x := NewWeightedIndex(tokenizer.New(tokenizer.Options{}))
	ingestAll(t, x.Ingest, "a b", "a b a", "c")

	a, _ := x.Postings("a")
	assert.Equal(t, 2, a[1].Count)
	assert.Equal(t, 2.0, a[1].Weight)

	require.NoError(t, x.FinalizeWeights())
	assert.True(t, x.Finalized())

	idfA := math.Log10(3.0 / 2.0)
	assert.InDelta(t, idfA, a[0].Weight, 1e-12)
	assert.InDelta(t, (1+math.Log10(2))*idfA, a[1].Weight, 1e-12)
	assert.Equal(t, 2, a[1].Count)

	l2, err := x.DocLength(2)
	require.NoError(t, err)
	assert.InDelta(t, math.Log10(3), l2, 1e-12)

	l0, err := x.DocLength(0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2)*idfA, l0, 1e-12)

	_, err = x.DocLength(9)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestWeightedTermInEveryDocumentHasZeroWeight(t *testing.T) {
	x := NewWeightedIndex(tokenizer.New(tokenizer.Options{}))
	ingestAll(t, x.Ingest, "x y", "x z", "x x")
	require.NoError(t, x.FinalizeWeights())

	postings, ok := x.Postings("x")
	require.True(t, ok)
	for _, p := range postings {
		assert.Zero(t, p.Weight)
	}
}

func TestWeightedLifecycleGuards(t *testing.T) {
	x := NewWeightedIndex(tokenizer.New(tokenizer.Options{}))
	ingestAll(t, x.Ingest, "alpha beta")

	_, err := x.DocLength(0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	require.NoError(t, x.FinalizeWeights())
	assert.ErrorIs(t, x.FinalizeWeights(), apperrors.ErrInvalidState)

	_, err = x.Ingest("gamma")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	_, err = x.IngestTerms("gamma", []string{"gamma"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 1, x.DocumentCount())
}

func TestFinalizeEmptyIndex(t *testing.T) {
	x := NewWeightedIndex(tokenizer.New(tokenizer.Options{}))
	require.NoError(t, x.FinalizeWeights())
	assert.Zero(t, x.DocumentCount())
}

func TestPositionalSnapshotRestore(t *testing.T) {
	tok := tokenizer.New(tokenizer.BooleanOptions())
	x := NewPositionalIndex(tok)
	ingestAll(t, x.Ingest, "big data systems", "data big")

	restored, err := RestorePositional(tok, x.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, x.TermCount(), restored.TermCount())
	assert.Equal(t, x.DocumentCount(), restored.DocumentCount())
	for _, term := range x.Dictionary().Terms() {
		want, _ := x.Postings(term)
		got, ok := restored.Postings(term)
		require.True(t, ok, term)
		assert.Equal(t, want, got, term)
	}

	// restored indexes keep accepting documents
	id, err := restored.Ingest("systems data")
	require.NoError(t, err)
	assert.Equal(t, DocID(2), id)
}

func TestWeightedSnapshotRestoreKeepsFinalization(t *testing.T) {
	tok := tokenizer.New(tokenizer.RankedOptions())
	x := NewWeightedIndex(tok)
	ingestAll(t, x.Ingest, "the cat", "the dog", "a bird")
	require.NoError(t, x.FinalizeWeights())

	restored, err := RestoreWeighted(tok, x.Snapshot())
	require.NoError(t, err)
	assert.True(t, restored.Finalized())
	want, _ := x.DocLength(2)
	got, err := restored.DocLength(2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreRejectsUnorderedPostings(t *testing.T) {
	snap := Snapshot[PositionalPosting]{
		Documents: []string{"a", "a"},
		Entries: []TermEntry[PositionalPosting]{{
			Term: "a",
			Postings: PostingList[PositionalPosting]{
				{DocID: 1, Positions: []int{1}},
				{DocID: 0, Positions: []int{1}},
			},
		}},
	}
	_, err := RestorePositional(tokenizer.New(tokenizer.Options{}), snap)
	assert.ErrorContains(t, err, "out of order")
}

func TestRestoreRejectsMissingLengths(t *testing.T) {
	snap := WeightedSnapshot{
		Snapshot:  Snapshot[WeightedPosting]{Documents: []string{"a"}},
		Finalized: true,
	}
	_, err := RestoreWeighted(tokenizer.New(tokenizer.Options{}), snap)
	assert.Error(t, err)
}
