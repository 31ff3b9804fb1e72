package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

type fakeCatalog struct {
	next int64
	seen map[string]bool
}

func (c *fakeCatalog) Record(_ context.Context, doc ingestion.Document) (int64, error) {
	if c.seen[doc.Source] {
		return 0, apperrors.ErrDocumentExists
	}
	c.seen[doc.Source] = true
	c.next++
	return c.next, nil
}

type fakeProducer struct {
	failures int
	events   []kafka.Event
}

func (p *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, e)
	return nil
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestIngestPublishesEvent(t *testing.T) {
	prod := &fakeProducer{failures: 2}
	p := New(&fakeCatalog{seen: map[string]bool{}}, prod, fastRetry)

	resp, err := p.Ingest(context.Background(), ingestion.Document{Text: "hello world", Label: "greet", Source: "greet/1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.CatalogID)
	assert.Equal(t, ingestion.StatusPending, resp.Status)

	require.Len(t, prod.events, 1)
	assert.Equal(t, "greet/1", prod.events[0].Key)

	raw, err := json.Marshal(prod.events[0].Value)
	require.NoError(t, err)
	ev, err := kafka.DecodeJSON[ingestion.DocumentEvent](raw)
	require.NoError(t, err)
	assert.Equal(t, "hello world", ev.Text)
	assert.Equal(t, "greet", ev.Label)
	assert.Equal(t, int64(1), ev.CatalogID)
}

func TestIngestGivesUpAfterRetries(t *testing.T) {
	p := New(nil, &fakeProducer{failures: 5}, fastRetry)
	_, err := p.Ingest(context.Background(), ingestion.Document{Text: "x"})
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestIngestRejectsInvalid(t *testing.T) {
	p := New(nil, &fakeProducer{}, fastRetry)
	_, err := p.Ingest(context.Background(), ingestion.Document{Text: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIngestAll(t *testing.T) {
	prod := &fakeProducer{}
	p := New(&fakeCatalog{seen: map[string]bool{}}, prod, fastRetry)
	docs := []ingestion.Document{
		{Text: "a", Source: "x/1"},
		{Text: "b", Source: "x/2"},
		{Text: "a", Source: "x/1"},
		{Text: "", Source: "x/3"},
	}
	s, err := p.IngestAll(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, Summary{Published: 2, Skipped: 1, Invalid: 1}, s)
	assert.Len(t, prod.events, 2)
}

func TestIngestAllStopsOnPublishFailure(t *testing.T) {
	p := New(nil, &fakeProducer{failures: 100}, fastRetry)
	s, err := p.IngestAll(context.Background(), []ingestion.Document{{Text: "a"}, {Text: "b"}})
	assert.Error(t, err)
	assert.Zero(t, s.Published)
}
