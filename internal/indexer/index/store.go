package index

// DocumentStore keeps the raw text of every ingested document, indexed by
// DocID. It is append-only.
type DocumentStore struct {
	docs []string
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

// Append stores text and returns the id of the new slot.
func (s *DocumentStore) Append(text string) DocID {
	s.docs = append(s.docs, text)
	return DocID(len(s.docs) - 1)
}

// Get returns the text of document id.
func (s *DocumentStore) Get(id DocID) (string, bool) {
	if id < 0 || int(id) >= len(s.docs) {
		return "", false
	}
	return s.docs[id], true
}

func (s *DocumentStore) Len() int {
	return len(s.docs)
}

// All returns every document in id order. The slice must not be modified.
func (s *DocumentStore) All() []string {
	return s.docs
}
