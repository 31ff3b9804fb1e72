// Package ingestion defines the documents and Kafka event schema that flow
// from a corpus into the indexer.
package ingestion

import "time"

// Document is one corpus entry. Label is the class directory the file was
// found in and plays no part in indexing.
type Document struct {
	Text   string `json:"text"`
	Label  string `json:"label,omitempty"`
	Source string `json:"source,omitempty"`
}

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
type IngestRequest struct {
	Text   string `json:"text"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	CatalogID int64  `json:"catalog_id"`
	Status    string `json:"status"`
}

// DocumentEvent is the Kafka message payload published once a document is
// cataloged and ready for indexing.
type DocumentEvent struct {
	CatalogID  int64     `json:"catalog_id"`
	Text       string    `json:"text"`
	Label      string    `json:"label,omitempty"`
	Source     string    `json:"source,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Catalog statuses.
const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)
