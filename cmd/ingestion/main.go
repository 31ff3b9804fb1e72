// Command ingestion feeds documents to the indexer through Kafka.
//
// With -corpus it walks a <dir>/<label>/<file> tree, publishes every file
// and exits. Otherwise it serves POST /api/v1/documents until SIGINT or
// SIGTERM. Each document is recorded in the PostgreSQL catalog first unless
// -catalog=false.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml] [-corpus ./corpus] [-catalog=false]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/catalog"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	corpus := flag.String("corpus", "", "publish every file under this directory and exit")
	useCatalog := flag.Bool("catalog", true, "record documents in the PostgreSQL catalog")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	var recorder publisher.Recorder
	if *useCatalog {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		cat := catalog.New(db)
		if err := cat.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare catalog", "error", err)
			os.Exit(1)
		}
		recorder = cat
		checker.Register("postgres", true, db.Ping)
	}

	topic := cfg.Kafka.Topics.Documents
	producer := kafka.NewProducer(cfg.Kafka, topic)
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("closing kafka producer", "error", err)
		}
	}()
	pub := publisher.New(recorder, producer, resilience.DefaultRetryConfig())

	if *corpus != "" {
		if err := publishCorpus(ctx, pub, *corpus); err != nil {
			slog.Error("corpus ingestion failed", "error", err)
			os.Exit(1)
		}
		return
	}
	serve(ctx, cfg, handler.New(pub), checker)
}

func publishCorpus(ctx context.Context, pub *publisher.Publisher, dir string) error {
	docs, err := loader.Walk(dir)
	if err != nil {
		return err
	}
	slog.Info("corpus loaded", "dir", dir, "documents", len(docs))
	summary, err := pub.IngestAll(ctx, docs)
	if err != nil {
		return err
	}
	slog.Info("corpus ingestion complete",
		"published", summary.Published,
		"skipped", summary.Skipped,
		"invalid", summary.Invalid,
	)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, h *handler.Handler, checker *health.Checker) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.Ingest)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Logging,
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("ingestion service listening", "addr", server.Addr, "topic", cfg.Kafka.Topics.Documents)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
