// Package indexer builds and serves the search indexes. An Engine keeps a
// positional index for boolean and phrase queries and a weighted index for
// ranked retrieval, both fed from the same document stream.
package indexer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// Engine is safe for concurrent use: ingestion takes the write lock and
// queries the read lock.
type Engine struct {
	mu         sync.RWMutex
	positional *index.PositionalIndex
	weighted   *index.WeightedIndex
	cfg        config.IndexerConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Tokenized is a document run through both tokenizer pipelines.
type Tokenized struct {
	Text       string
	Positional []string
	Weighted   []string
}

type Stats struct {
	Documents       int  `json:"documents"`
	PositionalTerms int  `json:"positional_terms"`
	WeightedTerms   int  `json:"weighted_terms"`
	Finalized       bool `json:"finalized"`
}

// NewEngine creates an empty engine. m may be nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		positional: index.NewPositionalIndex(newTokenizer(cfg.Boolean)),
		weighted:   index.NewWeightedIndex(newTokenizer(cfg.Ranked)),
		cfg:        cfg,
		metrics:    m,
		logger:     slog.Default().With("component", "indexer"),
	}
}

func newTokenizer(c config.TokenizerConfig) tokenizer.Tokenizer {
	return tokenizer.New(tokenizer.Options{RemoveStopwords: c.RemoveStopwords, Stem: c.Stem})
}

// Tokenize runs text through both pipelines. It touches no engine state
// and may be called concurrently with anything.
func (e *Engine) Tokenize(text string) (Tokenized, error) {
	pos, err := e.positional.Tokenizer().Tokenize(text)
	if err != nil {
		return Tokenized{}, err
	}
	w, err := e.weighted.Tokenizer().Tokenize(text)
	if err != nil {
		return Tokenized{}, err
	}
	return Tokenized{Text: text, Positional: pos, Weighted: w}, nil
}

// IndexDocument adds text to both indexes and returns its id. Tokenizer
// errors are returned unmodified and leave the engine unchanged.
func (e *Engine) IndexDocument(text string) (index.DocID, error) {
	doc, err := e.Tokenize(text)
	if err != nil {
		return 0, err
	}
	return e.IndexTokenized(doc)
}

// IndexTokenized adds a document produced by Tokenize.
func (e *Engine) IndexTokenized(doc Tokenized) (index.DocID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.weighted.Finalized() {
		return 0, apperrors.InvalidState("engine is finalized, rebuild it to add documents")
	}
	id := e.positional.IngestTerms(doc.Text, doc.Positional)
	wid, err := e.weighted.IngestTerms(doc.Text, doc.Weighted)
	if err != nil {
		return 0, err
	}
	if wid != id {
		return 0, fmt.Errorf("document id drift: positional %d, weighted %d: %w", id, wid, apperrors.ErrInternal)
	}

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.IndexDocuments.Set(float64(e.positional.DocumentCount()))
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"positional_terms", len(doc.Positional),
		"weighted_terms", len(doc.Weighted),
	)
	return id, nil
}

// Finalize computes TF-IDF weights and document lengths. It must run once,
// after all documents were added; ranked queries need it.
func (e *Engine) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if err := e.weighted.FinalizeWeights(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	e.observe()
	if e.metrics != nil {
		e.metrics.FinalizeDuration.Observe(elapsed.Seconds())
	}
	e.logger.Info("weights finalized",
		"documents", e.weighted.DocumentCount(),
		"terms", e.weighted.TermCount(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (e *Engine) Finalized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weighted.Finalized()
}

// Boolean returns the ids of documents containing every query term.
func (e *Engine) Boolean(raw string) ([]index.DocID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.BooleanAnd[index.PositionalPosting](e.positional, raw)
}

// Phrase returns the ids of documents containing the query as a phrase.
func (e *Engine) Phrase(raw string) ([]index.DocID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.PositionalAnd(e.positional, raw)
}

// Ranked returns the k best documents by cosine similarity.
func (e *Engine) Ranked(raw string, k int) ([]ranker.ScoredDoc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.Ranked(e.weighted, raw, k)
}

// Containing returns the ids of documents that contain any term of raw,
// tokenized with the boolean pipeline. Ids repeat once per matching term.
func (e *Engine) Containing(raw string) ([]index.DocID, error) {
	terms, err := e.positional.Tokenizer().Tokenize(raw)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []index.DocID
	for _, term := range terms {
		if list, ok := e.positional.Postings(term); ok {
			out = append(out, list.DocIDs()...)
		}
	}
	return out, nil
}

// Document returns the raw text of document id.
func (e *Engine) Document(id index.DocID) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positional.Document(id)
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents:       e.positional.DocumentCount(),
		PositionalTerms: e.positional.TermCount(),
		WeightedTerms:   e.weighted.TermCount(),
		Finalized:       e.weighted.Finalized(),
	}
}

// Save writes the engine to the configured snapshot file and returns its
// path.
func (e *Engine) Save() (string, error) {
	e.mu.RLock()
	pos := e.positional.Snapshot()
	w := e.weighted.Snapshot()
	e.mu.RUnlock()

	snap := &segment.Snapshot{
		Documents:  pos.Documents,
		Positional: pos.Entries,
		Weighted:   w.Entries,
		Finalized:  w.Finalized,
		Lengths:    w.Lengths,
	}
	path, err := segment.NewWriter(e.cfg.DataDir).Write(e.cfg.SnapshotFile, snap)
	if err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	e.logger.Info("snapshot written",
		"path", path,
		"documents", len(snap.Documents),
		"finalized", snap.Finalized,
	)
	return path, nil
}

// Open restores an engine from the configured snapshot file. The
// tokenizer options in cfg must match those the snapshot was built with.
func Open(cfg config.IndexerConfig, m *metrics.Metrics) (*Engine, error) {
	path := cfg.SnapshotPath()
	snap, err := segment.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	e := NewEngine(cfg, m)
	e.positional, err = index.RestorePositional(e.positional.Tokenizer(), index.Snapshot[index.PositionalPosting]{
		Documents: snap.Documents,
		Entries:   snap.Positional,
	})
	if err != nil {
		return nil, err
	}
	e.weighted, err = index.RestoreWeighted(e.weighted.Tokenizer(), index.WeightedSnapshot{
		Snapshot:  index.Snapshot[index.WeightedPosting]{Documents: snap.Documents, Entries: snap.Weighted},
		Finalized: snap.Finalized,
		Lengths:   snap.Lengths,
	})
	if err != nil {
		return nil, err
	}
	e.observe()
	e.logger.Info("snapshot loaded",
		"path", path,
		"documents", e.positional.DocumentCount(),
		"positional_terms", e.positional.TermCount(),
		"weighted_terms", e.weighted.TermCount(),
		"finalized", e.weighted.Finalized(),
	)
	return e, nil
}

// observe publishes index size gauges; callers hold the lock.
func (e *Engine) observe() {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexDocuments.Set(float64(e.positional.DocumentCount()))
	e.metrics.IndexTerms.WithLabelValues("positional").Set(float64(e.positional.TermCount()))
	e.metrics.IndexTerms.WithLabelValues("weighted").Set(float64(e.weighted.TermCount()))
	if e.weighted.Finalized() {
		e.metrics.IndexFinalized.Set(1)
	} else {
		e.metrics.IndexFinalized.Set(0)
	}
}
