// Command searcher answers boolean, phrase and ranked queries over an
// index snapshot written by the indexer, or over a corpus directory it
// indexes in memory at startup with -corpus.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml] [-corpus ./corpus]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/batch"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	corpus := flag.String("corpus", "", "index this directory in memory instead of opening a snapshot")
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
	engine, err := loadEngine(ctx, cfg.Indexer, m, *corpus)
	if err != nil {
		slog.Error("failed to load index", "error", err)
		os.Exit(1)
	}
	stats := engine.Stats()
	slog.Info("index ready",
		"documents", stats.Documents,
		"positional_terms", stats.PositionalTerms,
		"weighted_terms", stats.WeightedTerms,
	)

	checker := health.NewChecker()
	checker.Register("index", true, func(context.Context) error {
		if !engine.Finalized() {
			return errors.New("index is not finalized")
		}
		return nil
	})

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		store := cache.NewGuardedStore(redisClient, cfg.Redis.OpTimeout, resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Redis.BreakerThreshold,
			ResetTimeout:     cfg.Redis.BreakerReset,
		})
		queryCache = cache.New(store, cfg.Redis.CacheTTL, m)
		// results cached against an older index are stale
		if err := queryCache.Invalidate(ctx); err != nil {
			slog.Warn("cache invalidation at startup failed", "error", err)
		}
		checker.Register("redis", false, redisClient.Ping)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	h := handler.New(executor.New(engine, m), engine, queryCache, handler.Options{
		DefaultMode:  parser.Mode(cfg.Search.DefaultMode),
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Logging,
	}
	if cfg.Search.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Search.RateLimit, cfg.Search.RateWindow)
		go limiter.Run(ctx)
		mws = append(mws, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "limit", cfg.Search.RateLimit, "window", cfg.Search.RateWindow)
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
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

	slog.Info("search service listening", "addr", server.Addr, "default_mode", cfg.Search.DefaultMode)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func loadEngine(ctx context.Context, cfg config.IndexerConfig, m *metrics.Metrics, corpus string) (*indexer.Engine, error) {
	if corpus == "" {
		return indexer.Open(cfg, m)
	}
	docs, err := loader.Walk(corpus)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	engine := indexer.NewEngine(cfg, m)
	if _, err := batch.Index(ctx, engine, texts, cfg.Workers); err != nil {
		return nil, err
	}
	if err := engine.Finalize(); err != nil {
		return nil, err
	}
	return engine, nil
}
