// Command indexer builds the positional and weighted indexes, finalizes
// the weights and writes a snapshot for the searcher.
//
// With -corpus it indexes a <dir>/<label>/<file> tree directly. Otherwise
// it consumes document events from Kafka until the topic has been idle for
// indexer.idleTimeout or the process is signalled, marking each cataloged
// document INDEXED or FAILED as it goes.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-corpus ./corpus] [-catalog=false]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/batch"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/catalog"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	corpus := flag.String("corpus", "", "index this directory instead of consuming Kafka")
	useCatalog := flag.Bool("catalog", true, "update document status in the PostgreSQL catalog")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	engine := indexer.NewEngine(cfg.Indexer, m)
	if *corpus != "" {
		err = indexCorpus(ctx, engine, *corpus, cfg.Indexer.Workers)
	} else {
		err = consume(ctx, engine, cfg, *useCatalog)
	}
	if err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if err := engine.Finalize(); err != nil {
		slog.Error("finalize failed", "error", err)
		os.Exit(1)
	}
	path, err := engine.Save()
	if err != nil {
		slog.Error("saving snapshot failed", "error", err)
		os.Exit(1)
	}
	stats := engine.Stats()
	slog.Info("indexer finished",
		"snapshot", path,
		"documents", stats.Documents,
		"positional_terms", stats.PositionalTerms,
		"weighted_terms", stats.WeightedTerms,
	)
}

func indexCorpus(ctx context.Context, engine *indexer.Engine, dir string, workers int) error {
	docs, err := loader.Walk(dir)
	if err != nil {
		return err
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	res, err := batch.Index(ctx, engine, texts, workers)
	if err != nil {
		return err
	}
	slog.Info("corpus indexed", "dir", dir, "documents", len(res.IDs), "duration", res.Duration)
	return nil
}

// consume replays the documents topic from the start under a consumer
// group unique to this build, since every build starts from an empty index.
func consume(ctx context.Context, engine *indexer.Engine, cfg *config.Config, useCatalog bool) error {
	var updater consumer.StatusUpdater
	if useCatalog {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		updater = catalog.New(db)
	}

	kcfg := cfg.Kafka
	kcfg.ConsumerGroup = fmt.Sprintf("%s-%d", kcfg.ConsumerGroup, time.Now().Unix())
	kcfg.StartOffset = "first"

	ic := consumer.New(cfg.Indexer.IdleTimeout)
	source := kafka.NewConsumer(kcfg, cfg.Kafka.Topics.Documents, ic.Track(consumer.HandleMessage(engine, updater)))

	slog.Info("consuming documents",
		"topic", cfg.Kafka.Topics.Documents,
		"group", kcfg.ConsumerGroup,
		"idle_timeout", cfg.Indexer.IdleTimeout,
	)
	if err := ic.Run(ctx, source); err != nil {
		return err
	}
	slog.Info("consumer stopped", "messages", ic.Handled(), "lag", source.Lag())
	return nil
}
