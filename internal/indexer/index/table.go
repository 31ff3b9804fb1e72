package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
)

// table is the storage shared by both index variants: the term dictionary,
// one postings list per TermID, and the document store.
type table[P Posting] struct {
	dict  *Dictionary
	lists []PostingList[P]
	store *DocumentStore
	tok   tokenizer.Tokenizer
}

func newTable[P Posting](tok tokenizer.Tokenizer) table[P] {
	return table[P]{
		dict:  NewDictionary(),
		store: NewDocumentStore(),
		tok:   tok,
	}
}

// Postings returns the postings list of term. ok is false when the term was
// never indexed. The returned list must not be modified.
func (t *table[P]) Postings(term string) (list PostingList[P], ok bool) {
	id, ok := t.dict.Lookup(term)
	if !ok {
		return nil, false
	}
	return t.lists[id], true
}

// Document returns the raw text of document id.
func (t *table[P]) Document(id DocID) (string, bool) {
	return t.store.Get(id)
}

func (t *table[P]) DocumentCount() int { return t.store.Len() }

func (t *table[P]) TermCount() int { return t.dict.Len() }

// Tokenizer returns the pipeline the index was built with; queries against
// the index must use the same one.
func (t *table[P]) Tokenizer() tokenizer.Tokenizer { return t.tok }

// Dictionary exposes the term dictionary read-only.
func (t *table[P]) Dictionary() *Dictionary { return t.dict }

// ingest tokenizes text before touching any state, so a tokenizer failure
// leaves the index unchanged. The tokenizer error is returned as is.
func (t *table[P]) ingest(text string, open func(DocID, int) P, extend func(*P, int)) (DocID, error) {
	terms, err := t.tok.Tokenize(text)
	if err != nil {
		return 0, err
	}
	return t.ingestTerms(text, terms, open, extend), nil
}

func (t *table[P]) ingestTerms(text string, terms []string, open func(DocID, int) P, extend func(*P, int)) DocID {
	doc := t.store.Append(text)
	for i, term := range terms {
		pos := i + 1
		id, created := t.dict.Intern(term)
		if created {
			t.lists = append(t.lists, nil)
		}
		list := t.lists[id]
		// ids only grow, so a posting for doc can only be the last one
		if n := len(list); n > 0 && list[n-1].Doc() == doc {
			extend(&list[n-1], pos)
			continue
		}
		t.lists[id] = append(list, open(doc, pos))
	}
	return doc
}

// Snapshot is a self-contained copy of an index's documents and postings,
// with entries in TermID order.
type Snapshot[P Posting] struct {
	Documents []string       `json:"documents"`
	Entries   []TermEntry[P] `json:"entries"`
}

func (t *table[P]) snapshot() Snapshot[P] {
	entries := make([]TermEntry[P], len(t.lists))
	for id, list := range t.lists {
		cp := make(PostingList[P], len(list))
		copy(cp, list)
		entries[id] = TermEntry[P]{Term: t.dict.Term(TermID(id)), Postings: cp}
	}
	docs := make([]string, len(t.store.All()))
	copy(docs, t.store.All())
	return Snapshot[P]{Documents: docs, Entries: entries}
}

func (t *table[P]) restore(snap Snapshot[P], check func(P) error) error {
	for _, text := range snap.Documents {
		t.store.Append(text)
	}
	n := DocID(t.store.Len())
	for _, entry := range snap.Entries {
		if _, created := t.dict.Intern(entry.Term); !created {
			return fmt.Errorf("duplicate term %q in snapshot", entry.Term)
		}
		if len(entry.Postings) == 0 {
			return fmt.Errorf("term %q has an empty postings list", entry.Term)
		}
		prev := DocID(-1)
		for _, p := range entry.Postings {
			if p.Doc() <= prev || p.Doc() >= n {
				return fmt.Errorf("term %q: posting for document %d out of order or range", entry.Term, p.Doc())
			}
			if err := check(p); err != nil {
				return fmt.Errorf("term %q, document %d: %w", entry.Term, p.Doc(), err)
			}
			prev = p.Doc()
		}
		t.lists = append(t.lists, entry.Postings)
	}
	return nil
}
