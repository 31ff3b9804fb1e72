package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
)

type fakeEngine struct {
	texts []string
	fail  error
}

func (e *fakeEngine) IndexDocument(text string) (index.DocID, error) {
	if e.fail != nil {
		return 0, e.fail
	}
	e.texts = append(e.texts, text)
	return index.DocID(len(e.texts) - 1), nil
}

type statusCall struct {
	catalogID int64
	status    string
	docID     index.DocID
}

type fakeCatalog struct{ calls []statusCall }

func (c *fakeCatalog) MarkIndexed(_ context.Context, id int64, docID index.DocID) error {
	c.calls = append(c.calls, statusCall{id, ingestion.StatusIndexed, docID})
	return nil
}

func (c *fakeCatalog) MarkFailed(_ context.Context, id int64, _ error) error {
	c.calls = append(c.calls, statusCall{catalogID: id, status: ingestion.StatusFailed})
	return nil
}

func event(t *testing.T, ev ingestion.DocumentEvent) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return data
}

func TestHandleMessage(t *testing.T) {
	engine := &fakeEngine{}
	cat := &fakeCatalog{}
	h := HandleMessage(engine, cat)
	ctx := context.Background()

	require.NoError(t, h(ctx, nil, event(t, ingestion.DocumentEvent{CatalogID: 5, Text: "first"})))
	require.NoError(t, h(ctx, nil, event(t, ingestion.DocumentEvent{CatalogID: 9, Text: "second"})))
	require.NoError(t, h(ctx, nil, event(t, ingestion.DocumentEvent{Text: "uncataloged"})))
	require.NoError(t, h(ctx, []byte("k"), []byte("{not json")))

	assert.Equal(t, []string{"first", "second", "uncataloged"}, engine.texts)
	assert.Equal(t, []statusCall{
		{5, ingestion.StatusIndexed, 0},
		{9, ingestion.StatusIndexed, 1},
	}, cat.calls)
}

func TestHandleMessageMarksFailure(t *testing.T) {
	boom := errors.New("tokenizer failed")
	cat := &fakeCatalog{}
	h := HandleMessage(&fakeEngine{fail: boom}, cat)

	err := h(context.Background(), nil, event(t, ingestion.DocumentEvent{CatalogID: 3, Text: "x"}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []statusCall{{catalogID: 3, status: ingestion.StatusFailed}}, cat.calls)
}

func TestHandleMessageWithoutCatalog(t *testing.T) {
	engine := &fakeEngine{}
	h := HandleMessage(engine, nil)
	require.NoError(t, h(context.Background(), nil, event(t, ingestion.DocumentEvent{CatalogID: 1, Text: "ok"})))
	assert.Len(t, engine.texts, 1)
}

// chanSource feeds queued messages to its handler, then blocks until the
// context ends, like a Kafka reader on a drained topic.
type chanSource struct {
	msgs    [][]byte
	handler kafka.MessageHandler
}

func (s *chanSource) Start(ctx context.Context) error {
	for _, m := range s.msgs {
		if err := s.handler(ctx, nil, m); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

func TestRunStopsWhenIdle(t *testing.T) {
	engine := &fakeEngine{}
	src := &chanSource{msgs: [][]byte{
		event(t, ingestion.DocumentEvent{Text: "a"}),
		event(t, ingestion.DocumentEvent{Text: "b"}),
	}}
	ic := New(50 * time.Millisecond)
	src.handler = ic.Track(HandleMessage(engine, nil))

	done := make(chan error, 1)
	go func() { done <- ic.Run(context.Background(), src) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on idle")
	}
	assert.Equal(t, int64(2), ic.Handled())
	assert.Equal(t, []string{"a", "b"}, engine.texts)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ic := New(0)
	done := make(chan error, 1)
	go func() { done <- ic.Run(ctx, &chanSource{}) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}
