package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sport", "b.txt"), []byte("goal scored"))
	writeFile(t, filepath.Join(dir, "sport", "a.txt"), []byte("match report"))
	writeFile(t, filepath.Join(dir, "sport", ".DS_Store"), []byte("junk"))
	writeFile(t, filepath.Join(dir, "politics", "x.txt"), []byte("election day"))
	writeFile(t, filepath.Join(dir, "README"), []byte("not a document"))
	writeFile(t, filepath.Join(dir, ".hidden", "y.txt"), []byte("skipped"))
	writeFile(t, filepath.Join(dir, "sport", "nested", "deep.txt"), []byte("not read"))

	docs, err := Walk(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "politics", docs[0].Label)
	assert.Equal(t, "election day", docs[0].Text)
	assert.Equal(t, "match report", docs[1].Text)
	assert.Equal(t, "goal scored", docs[2].Text)
	assert.Equal(t, filepath.Join(dir, "sport", "b.txt"), docs[2].Source)
}

func TestWalkMissingDir(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestReadTextLatin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	writeFile(t, path, []byte("caf\xe9"))
	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}
