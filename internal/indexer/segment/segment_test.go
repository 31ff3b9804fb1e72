package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Documents: []string{"big data", "data big"},
		Positional: []index.TermEntry[index.PositionalPosting]{
			{Term: "big", Postings: index.PostingList[index.PositionalPosting]{{DocID: 0, Positions: []int{1}}, {DocID: 1, Positions: []int{2}}}},
			{Term: "data", Postings: index.PostingList[index.PositionalPosting]{{DocID: 0, Positions: []int{2}}, {DocID: 1, Positions: []int{1}}}},
		},
		Weighted: []index.TermEntry[index.WeightedPosting]{
			{Term: "big", Postings: index.PostingList[index.WeightedPosting]{{DocID: 0, Count: 1}, {DocID: 1, Count: 1}}},
		},
		Finalized: true,
		Lengths:   []float64{0, 0},
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	path, err := NewWriter(dir).Write("index.vsmx", sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.vsmx"), path)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, MagicBytes, h.Magic)
	assert.Equal(t, uint32(2), h.DocCount)
	assert.Equal(t, uint32(2), h.PositionalTerms)
	assert.Equal(t, uint32(1), h.WeightedTerms)
	assert.True(t, h.Finalized())
}

func TestWriteReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	_, err := w.Write("index.vsmx", sampleSnapshot())
	require.NoError(t, err)

	path, err := w.Write("index.vsmx", &Snapshot{Documents: []string{"only"}})
	require.NoError(t, err)
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got.Documents)
	assert.False(t, got.Finalized)
}

func TestReadRejectsCorruption(t *testing.T) {
	dir := t.TempDir()
	path, err := NewWriter(dir).Write("index.vsmx", sampleSnapshot())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("flipped body byte", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[HeaderSize+1] ^= 0xff
		p := filepath.Join(dir, "body.vsmx")
		require.NoError(t, os.WriteFile(p, bad, 0644))
		_, err := Read(p)
		assert.ErrorContains(t, err, "checksum")
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 0
		p := filepath.Join(dir, "magic.vsmx")
		require.NoError(t, os.WriteFile(p, bad, 0644))
		_, err := Read(p)
		assert.ErrorContains(t, err, "magic")
	})

	t.Run("truncated", func(t *testing.T) {
		p := filepath.Join(dir, "short.vsmx")
		require.NoError(t, os.WriteFile(p, data[:len(data)-3], 0644))
		_, err := Read(p)
		assert.Error(t, err)
	})
}
