// Package publisher catalogs documents and publishes them to Kafka for the
// indexer to consume.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

// Recorder stores a document and returns its catalog id.
type Recorder interface {
	Record(ctx context.Context, doc ingestion.Document) (int64, error)
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

var _ EventPublisher = (*kafka.Producer)(nil)

type Publisher struct {
	catalog  Recorder
	producer EventPublisher
	retry    resilience.RetryConfig
	logger   *slog.Logger
}

// New creates a Publisher. catalog may be nil, in which case documents are
// published without a catalog id.
func New(catalog Recorder, producer EventPublisher, retry resilience.RetryConfig) *Publisher {
	return &Publisher{
		catalog:  catalog,
		producer: producer,
		retry:    retry,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest validates doc, records it as PENDING and publishes a
// DocumentEvent, retrying transient Kafka failures.
func (p *Publisher) Ingest(ctx context.Context, doc ingestion.Document) (*ingestion.IngestResponse, error) {
	if err := validator.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	var catalogID int64
	if p.catalog != nil {
		id, err := p.catalog.Record(ctx, doc)
		if err != nil {
			return nil, err
		}
		catalogID = id
	}

	event := kafka.Event{
		Key: doc.Source,
		Value: ingestion.DocumentEvent{
			CatalogID:  catalogID,
			Text:       doc.Text,
			Label:      doc.Label,
			Source:     doc.Source,
			IngestedAt: time.Now().UTC(),
		},
	}
	err := resilience.Retry(ctx, "publish-document", p.retry, func() error {
		return p.producer.Publish(ctx, event)
	})
	if err != nil {
		p.logger.Error("failed to publish to kafka, document stuck in PENDING",
			"catalog_id", catalogID,
			"source", doc.Source,
			"error", err,
		)
		return nil, fmt.Errorf("publishing document: %w", err)
	}
	return &ingestion.IngestResponse{CatalogID: catalogID, Status: ingestion.StatusPending}, nil
}

// Summary counts the outcome of IngestAll.
type Summary struct {
	Published int
	Skipped   int
	Invalid   int
}

// IngestAll ingests docs in order. Documents that are already cataloged or
// fail validation are counted and skipped; any other error stops the run.
func (p *Publisher) IngestAll(ctx context.Context, docs []ingestion.Document) (Summary, error) {
	var s Summary
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		_, err := p.Ingest(ctx, doc)
		switch {
		case err == nil:
			s.Published++
		case errors.Is(err, apperrors.ErrDocumentExists):
			s.Skipped++
		case errors.Is(err, apperrors.ErrInvalidInput):
			p.logger.Warn("skipping invalid document", "source", doc.Source, "error", err)
			s.Invalid++
		default:
			return s, fmt.Errorf("ingesting %s: %w", doc.Source, err)
		}
	}
	p.logger.Info("corpus published",
		"published", s.Published,
		"skipped", s.Skipped,
		"invalid", s.Invalid,
	)
	return s, nil
}
