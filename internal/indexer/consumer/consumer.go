// Package consumer reads DocumentEvents from Kafka and indexes them via the
// indexer engine.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
)

// Indexer is the ingestion side of an indexer.Engine.
type Indexer interface {
	IndexDocument(text string) (index.DocID, error)
}

// StatusUpdater records indexing outcomes; *catalog.Catalog satisfies it.
type StatusUpdater interface {
	MarkIndexed(ctx context.Context, catalogID int64, docID index.DocID) error
	MarkFailed(ctx context.Context, catalogID int64, reason error) error
}

// Source is a blocking message loop such as *kafka.Consumer.
type Source interface {
	Start(ctx context.Context) error
}

// IndexConsumer drives a Source until its context ends or no message has
// arrived for the idle timeout.
type IndexConsumer struct {
	idle       time.Duration
	lastActive atomic.Int64
	handled    atomic.Int64
	logger     *slog.Logger
}

// New creates an IndexConsumer. idle <= 0 disables the idle stop.
func New(idle time.Duration) *IndexConsumer {
	ic := &IndexConsumer{
		idle:   idle,
		logger: slog.Default().With("component", "index-consumer"),
	}
	ic.touch()
	return ic
}

// Track wraps h so that every message counts as activity.
func (ic *IndexConsumer) Track(h kafka.MessageHandler) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		ic.touch()
		err := h(ctx, key, value)
		ic.handled.Add(1)
		ic.touch()
		return err
	}
}

// Handled returns the number of messages processed so far.
func (ic *IndexConsumer) Handled() int64 { return ic.handled.Load() }

// Run starts source and stops it once ctx is cancelled or no tracked
// message has arrived for the idle timeout. Reaching the idle timeout is
// not an error.
func (ic *IndexConsumer) Run(ctx context.Context, source Source) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if ic.idle > 0 {
		go ic.watchIdle(runCtx, cancel)
	}
	ic.logger.Info("index consumer starting", "idle_timeout", ic.idle)
	ic.touch()
	err := source.Start(runCtx)
	ic.logger.Info("index consumer stopped", "handled", ic.Handled())
	if ctx.Err() == nil && runCtx.Err() != nil {
		return nil
	}
	return err
}

func (ic *IndexConsumer) watchIdle(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(max(ic.idle/4, 10*time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.Unix(0, ic.lastActive.Load())
			if time.Since(last) >= ic.idle {
				ic.logger.Info("topic idle, stopping consumer", "idle_for", time.Since(last).Round(time.Millisecond))
				cancel()
				return
			}
		}
	}
}

func (ic *IndexConsumer) touch() {
	ic.lastActive.Store(time.Now().UnixNano())
}

// HandleMessage returns a MessageHandler that indexes each DocumentEvent
// into engine. If catalog is non-nil the document's status is updated
// after indexing. Undecodable messages are logged and skipped.
func HandleMessage(engine Indexer, catalog StatusUpdater) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		docID, err := engine.IndexDocument(event.Text)
		if err != nil {
			if catalog != nil && event.CatalogID != 0 {
				logUpdate(logger, event.CatalogID, catalog.MarkFailed(ctx, event.CatalogID, err))
			}
			return fmt.Errorf("indexing document %s: %w", event.Source, err)
		}
		if catalog != nil && event.CatalogID != 0 {
			logUpdate(logger, event.CatalogID, catalog.MarkIndexed(ctx, event.CatalogID, docID))
		}

		logger.Debug("document indexed",
			"doc_id", docID,
			"catalog_id", event.CatalogID,
			"label", event.Label,
		)
		return nil
	}
}

func logUpdate(logger *slog.Logger, catalogID int64, err error) {
	if err != nil {
		logger.Error("failed to update document status",
			"catalog_id", catalogID,
			"error", err,
		)
	}
}
