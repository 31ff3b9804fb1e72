package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// Engine is the query side of an indexer.Engine.
type Engine interface {
	Boolean(raw string) ([]index.DocID, error)
	Phrase(raw string) ([]index.DocID, error)
	Ranked(raw string, k int) ([]ranker.ScoredDoc, error)
	Containing(raw string) ([]index.DocID, error)
	Document(id index.DocID) (string, bool)
}

type Hit struct {
	DocID index.DocID `json:"doc_id"`
	Score float64     `json:"score"`
	Text  string      `json:"text"`
}

type SearchResult struct {
	Query     string      `json:"query"`
	Mode      parser.Mode `json:"mode"`
	TotalHits int         `json:"total_hits"`
	Results   []Hit       `json:"results"`
}

type Executor struct {
	engine  Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an executor over engine. m may be nil.
func New(engine Engine, m *metrics.Metrics) *Executor {
	return &Executor{
		engine:  engine,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Execute runs plan and materializes at most limit documents. Boolean and
// phrase hits come back in document id order with TotalHits counting every
// match; ranked hits come back best first.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	start := time.Now()
	result, err := e.execute(ctx, plan, limit)
	e.observe(plan.Mode, result, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"mode", plan.Mode,
		"excluded_terms", len(plan.ExcludeTerms),
		"total_hits", result.TotalHits,
		"results", len(result.Results),
	)
	return result, nil
}

func (e *Executor) execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	result := &SearchResult{Query: plan.RawQuery, Mode: plan.Mode, Results: []Hit{}}
	if plan.Empty() || limit <= 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded, err := e.excluded(plan.ExcludeTerms)
	if err != nil {
		return nil, err
	}

	switch plan.Mode {
	case parser.ModeBoolean, parser.ModePhrase:
		var ids []index.DocID
		if plan.Mode == parser.ModeBoolean {
			ids, err = e.engine.Boolean(plan.Text)
		} else {
			ids, err = e.engine.Phrase(plan.Text)
		}
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", plan.Mode, err)
		}
		matches := roaring.New()
		for _, id := range ids {
			matches.Add(uint32(id))
		}
		matches.AndNot(excluded)
		result.TotalHits = int(matches.GetCardinality())
		it := matches.Iterator()
		for it.HasNext() && len(result.Results) < limit {
			id := index.DocID(it.Next())
			result.Results = append(result.Results, e.hit(id, 0))
		}

	case parser.ModeRanked:
		// at most every excluded document can fall out of the top k
		k := limit + int(excluded.GetCardinality())
		scored, err := e.engine.Ranked(plan.Text, k)
		if err != nil {
			return nil, fmt.Errorf("ranked query: %w", err)
		}
		for _, sd := range scored {
			if excluded.Contains(uint32(sd.DocID)) {
				continue
			}
			if len(result.Results) == limit {
				break
			}
			result.Results = append(result.Results, e.hit(sd.DocID, sd.Score))
		}
		result.TotalHits = len(result.Results)

	default:
		return nil, fmt.Errorf("unsupported search mode %q", plan.Mode)
	}
	return result, nil
}

// excluded returns the documents containing any NOT term.
func (e *Executor) excluded(terms []string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for _, term := range terms {
		ids, err := e.engine.Containing(term)
		if err != nil {
			return nil, fmt.Errorf("resolving excluded term %q: %w", term, err)
		}
		for _, id := range ids {
			bm.Add(uint32(id))
		}
	}
	return bm, nil
}

func (e *Executor) hit(id index.DocID, score float64) Hit {
	text, ok := e.engine.Document(id)
	if !ok {
		e.logger.Warn("matched document missing from store", "doc_id", id)
	}
	return Hit{DocID: id, Score: score, Text: text}
}

func (e *Executor) observe(mode parser.Mode, result *SearchResult, err error, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case len(result.Results) == 0:
		outcome = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(string(mode), outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	if err == nil {
		e.metrics.SearchResultsCount.WithLabelValues(string(mode)).Observe(float64(len(result.Results)))
	}
}
