// Command indexer rebuilds the persisted index from the pages table.
//
// It clears the index store, re-indexes every stored page and, with
// -snapshot, also writes the rebuilt index to the configured snapshot file.
// Run it after changing stop-words or tokenization so the search service
// restores a consistent index.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-snapshot]
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

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/sqldb"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	writeSnapshot := flag.Bool("snapshot", false, "also write the rebuilt index to the snapshot file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *writeSnapshot); err != nil {
		slog.Error("reindex failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, writeSnapshot bool) error {
	start := time.Now()
	db, err := sqldb.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pages := repository.New(db.DB, db.Dialect)
	if err := pages.Migrate(ctx); err != nil {
		return err
	}
	engine := indexer.NewEngine(cfg.Indexer)
	if cfg.Indexer.StoreDriver != "snapshot" {
		indexStore := store.New(db.DB, db.Dialect, resilience.RetryConfig{
			MaxAttempts:  cfg.Indexer.StoreRetry.MaxAttempts,
			InitialDelay: cfg.Indexer.StoreRetry.InitialDelay,
			MaxDelay:     cfg.Indexer.StoreRetry.MaxDelay,
		})
		if err := indexStore.Migrate(ctx); err != nil {
			return err
		}
		engine.AddListener(indexStore)
	}
	if err := engine.Clear(ctx); err != nil {
		return fmt.Errorf("clearing index store: %w", err)
	}

	all, err := pages.List(ctx)
	if err != nil {
		return err
	}
	slog.Info("reindexing pages", "pages", len(all), "dialect", db.Dialect.String())
	for i, page := range all {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := engine.StoreDocument(ctx, page, page.Keywords(), page.Content()); err != nil {
			return fmt.Errorf("indexing page %q: %w", page.Name(), err)
		}
		if (i+1)%1000 == 0 {
			slog.Info("reindex progress", "indexed", i+1, "total", len(all))
		}
	}

	if writeSnapshot || cfg.Indexer.StoreDriver == "snapshot" {
		if err := engine.Snapshot(segment.NewWriter(cfg.Indexer.SnapshotPath)); err != nil {
			return err
		}
	}
	slog.Info("reindex complete",
		"documents", engine.TotalDocuments(),
		"words", engine.TotalWords(),
		"occurrences", engine.TotalOccurrences(),
		"elapsed", time.Since(start),
	)
	return nil
}
