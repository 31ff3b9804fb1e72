package index

// DocID identifies a document. Ids are dense, assigned from 0 in ingestion
// order, and slot i of the DocumentStore holds document i.
type DocID int

// Posting is one document's association with one term.
type Posting interface {
	Doc() DocID
}

// PositionalPosting records the 1-based token offsets at which a term occurs
// in a document. Positions is ascending and never empty.
type PositionalPosting struct {
	DocID     DocID `json:"d"`
	Positions []int `json:"p"`
}

func (p PositionalPosting) Doc() DocID { return p.DocID }

// WeightedPosting carries a term's weight in a document. Before
// finalization Weight equals the raw Count; afterwards it holds the TF-IDF
// weight. Count is kept for tie-breaking.
type WeightedPosting struct {
	DocID  DocID   `json:"d"`
	Count  int     `json:"c"`
	Weight float64 `json:"w"`
}

func (p WeightedPosting) Doc() DocID { return p.DocID }

// PostingList holds at most one posting per document, strictly ascending by
// DocID.
type PostingList[P Posting] []P

// DocIDs returns the document ids of the list in order.
func (l PostingList[P]) DocIDs() []DocID {
	ids := make([]DocID, len(l))
	for i, p := range l {
		ids[i] = p.Doc()
	}
	return ids
}

// TermEntry pairs a term with its postings; used for snapshots.
type TermEntry[P Posting] struct {
	Term     string         `json:"t"`
	Postings PostingList[P] `json:"p"`
}
