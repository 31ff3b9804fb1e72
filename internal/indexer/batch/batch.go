// Package batch indexes a known set of documents, tokenizing them in
// parallel while keeping document ids in input order.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

// Result reports the ids assigned to a batch, parallel to its input.
type Result struct {
	IDs      []index.DocID
	Duration time.Duration
}

// Index tokenizes texts with up to workers goroutines and then adds them to
// engine sequentially, so texts[i] receives a smaller id than texts[i+1].
// The first tokenizer error cancels the batch before anything is indexed.
func Index(ctx context.Context, engine *indexer.Engine, texts []string, workers int) (*Result, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	logger := slog.Default().With("component", "batch-indexer")

	tokenized := make([]indexer.Tokenized, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := engine.Tokenize(text)
			if err != nil {
				return fmt.Errorf("tokenizing document %d: %w", i, err)
			}
			tokenized[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]index.DocID, 0, len(tokenized))
	for i, doc := range tokenized {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := engine.IndexTokenized(doc)
		if err != nil {
			return nil, fmt.Errorf("indexing document %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	res := &Result{IDs: ids, Duration: time.Since(start)}
	logger.Info("batch indexed",
		"documents", len(ids),
		"workers", workers,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
