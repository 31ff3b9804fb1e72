package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDictionaryIntern(t *testing.T) {
	d := NewDictionary()

	id, created := d.Intern("search")
	assert.True(t, created)
	assert.Equal(t, TermID(0), id)

	id, created = d.Intern("engine")
	assert.True(t, created)
	assert.Equal(t, TermID(1), id)

	id, created = d.Intern("search")
	assert.False(t, created)
	assert.Equal(t, TermID(0), id)

	got, ok := d.Lookup("engine")
	assert.True(t, ok)
	assert.Equal(t, "engine", d.Term(got))

	_, ok = d.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"search", "engine"}, d.Terms())
}

func TestDocumentStore(t *testing.T) {
	s := NewDocumentStore()
	assert.Equal(t, DocID(0), s.Append("first"))
	assert.Equal(t, DocID(1), s.Append("second"))

	text, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "second", text)

	_, ok = s.Get(-1)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestWeights(t *testing.T) {
	assert.Zero(t, IDF(4, 4))
	assert.InDelta(t, 1.0, IDF(10, 1), 1e-12)
	assert.Zero(t, IDF(0, 0))
	assert.InDelta(t, 2.0, TFIDF(10, 1), 1e-12)
	assert.Zero(t, TFIDF(0, 1))
}
