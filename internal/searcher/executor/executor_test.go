package executor

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

var corpus = []string{
	"the cat sat on the mat",
	"the dog sat on the log",
	"cats and dogs living together",
	"a cat and a dog",
	"birds fly south",
}

func newEngine(t *testing.T, finalize bool) *indexer.Engine {
	t.Helper()
	e := indexer.NewEngine(config.IndexerConfig{
		DataDir:      t.TempDir(),
		SnapshotFile: "index.vsmx",
		Boolean:      config.TokenizerConfig{RemoveStopwords: true, Stem: true},
		Ranked:       config.TokenizerConfig{Stem: true},
	}, nil)
	for _, d := range corpus {
		_, err := e.IndexDocument(d)
		require.NoError(t, err)
	}
	if finalize {
		require.NoError(t, e.Finalize())
	}
	return e
}

func docIDs(hits []Hit) []index.DocID {
	out := make([]index.DocID, len(hits))
	for i, h := range hits {
		out[i] = h.DocID
	}
	return out
}

func TestExecuteBoolean(t *testing.T) {
	ex := New(newEngine(t, true), nil)
	res, err := ex.Execute(context.Background(), parser.Parse("cat dog", parser.ModeBoolean), 10)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{2, 3}, docIDs(res.Results))
	assert.Equal(t, 2, res.TotalHits)
	assert.Equal(t, "a cat and a dog", res.Results[1].Text)
	assert.Equal(t, parser.ModeBoolean, res.Mode)
}

func TestExecuteBooleanLimitKeepsTotal(t *testing.T) {
	ex := New(newEngine(t, true), nil)
	res, err := ex.Execute(context.Background(), parser.Parse("cat", parser.ModeBoolean), 2)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{0, 2}, docIDs(res.Results))
	assert.Equal(t, 3, res.TotalHits)
}

func TestExecuteNotExclusion(t *testing.T) {
	ex := New(newEngine(t, true), nil)

	res, err := ex.Execute(context.Background(), parser.Parse("cat NOT dog", parser.ModeBoolean), 10)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{0}, docIDs(res.Results))

	res, err = ex.Execute(context.Background(), parser.Parse("sat NOT mat", parser.ModeRanked), 10)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{1}, docIDs(res.Results))
	assert.Equal(t, 1, res.TotalHits)
}

func TestExecutePhrase(t *testing.T) {
	ex := New(newEngine(t, false), nil)
	res, err := ex.Execute(context.Background(), parser.Parse(`"cat sat"`, parser.ModeBoolean), 10)
	require.NoError(t, err)
	assert.Equal(t, parser.ModePhrase, res.Mode)
	assert.Equal(t, []index.DocID{0}, docIDs(res.Results))

	res, err = ex.Execute(context.Background(), parser.Parse("sat cat", parser.ModePhrase), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestExecuteRanked(t *testing.T) {
	ex := New(newEngine(t, true), nil)
	res, err := ex.Execute(context.Background(), parser.Parse("dog", parser.ModeRanked), 2)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.GreaterOrEqual(t, res.Results[0].Score, res.Results[1].Score)
	for _, h := range res.Results {
		assert.NotEmpty(t, h.Text)
	}
}

func TestExecuteRankedBeforeFinalize(t *testing.T) {
	ex := New(newEngine(t, false), nil)
	_, err := ex.Execute(context.Background(), parser.Parse("dog", parser.ModeRanked), 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestExecuteEmptyPlan(t *testing.T) {
	ex := New(newEngine(t, true), nil)
	res, err := ex.Execute(context.Background(), parser.Parse("NOT cat", parser.ModeBoolean), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Zero(t, res.TotalHits)
}

func TestExecuteCancelled(t *testing.T) {
	ex := New(newEngine(t, true), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.Execute(ctx, parser.Parse("cat", parser.ModeBoolean), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteMetrics(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	ex := New(newEngine(t, true), m)

	_, err := ex.Execute(context.Background(), parser.Parse("cat", parser.ModeBoolean), 10)
	require.NoError(t, err)
	_, err = ex.Execute(context.Background(), parser.Parse("unicorn", parser.ModeBoolean), 10)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("boolean", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("boolean", "zero_result")))
}
