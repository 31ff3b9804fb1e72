package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
)

func newEngine(t *testing.T) *indexer.Engine {
	t.Helper()
	return indexer.NewEngine(config.IndexerConfig{
		DataDir:      t.TempDir(),
		SnapshotFile: "index.vsmx",
		Boolean:      config.TokenizerConfig{RemoveStopwords: true, Stem: true},
		Ranked:       config.TokenizerConfig{Stem: true},
	}, nil)
}

func TestIndexKeepsInputOrder(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("document number%d shared", i)
	}
	e := newEngine(t)
	res, err := Index(context.Background(), e, texts, 8)
	require.NoError(t, err)
	require.Len(t, res.IDs, len(texts))
	for i, id := range res.IDs {
		assert.Equal(t, index.DocID(i), id)
		text, ok := e.Document(id)
		require.True(t, ok)
		assert.Equal(t, texts[i], text)
	}
}

func TestIndexMatchesSequential(t *testing.T) {
	texts := []string{"the cat sat", "the dog sat", "cats and dogs", "a dog and a cat"}
	parallel := newEngine(t)
	_, err := Index(context.Background(), parallel, texts, 4)
	require.NoError(t, err)

	sequential := newEngine(t)
	for _, text := range texts {
		_, err := sequential.IndexDocument(text)
		require.NoError(t, err)
	}
	require.NoError(t, parallel.Finalize())
	require.NoError(t, sequential.Finalize())

	for _, q := range []string{"cat", "dog sat", "cats dogs"} {
		want, err := sequential.Ranked(q, 10)
		require.NoError(t, err)
		got, err := parallel.Ranked(q, 10)
		require.NoError(t, err)
		assert.Equal(t, want, got, q)
	}
}

func TestIndexCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t)
	_, err := Index(ctx, e, []string{"one", "two"}, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, e.Stats().Documents)
}

func TestIndexEmpty(t *testing.T) {
	res, err := Index(context.Background(), newEngine(t), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
}
