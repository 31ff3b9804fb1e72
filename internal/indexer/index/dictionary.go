package index

// TermID is the dense identifier of a term in a Dictionary.
type TermID int

// Dictionary is a bidirectional term <-> TermID mapping. Ids are assigned
// from 0 in first-seen order.
type Dictionary struct {
	ids   map[string]TermID
	terms []string
}

func NewDictionary() *Dictionary {
	return &Dictionary{ids: make(map[string]TermID)}
}

// Lookup returns the id of term, if present.
func (d *Dictionary) Lookup(term string) (TermID, bool) {
	id, ok := d.ids[term]
	return id, ok
}

// Intern returns the id of term, adding it when absent. created reports
// whether a new entry was made.
func (d *Dictionary) Intern(term string) (id TermID, created bool) {
	if id, ok := d.ids[term]; ok {
		return id, false
	}
	id = TermID(len(d.terms))
	d.ids[term] = id
	d.terms = append(d.terms, term)
	return id, true
}

// Term returns the string for id. It panics on an id the dictionary never
// issued.
func (d *Dictionary) Term(id TermID) string {
	return d.terms[id]
}

func (d *Dictionary) Len() int {
	return len(d.terms)
}

// Terms returns all terms in id order. The slice must not be modified.
func (d *Dictionary) Terms() []string {
	return d.terms
}
