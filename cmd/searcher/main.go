// Command searcher starts the wiki search service.
//
// The service restores the index from the configured store (PostgreSQL,
// SQLite or a snapshot file), keeps it current from the page event topic,
// and serves queries via GET /api/v1/search. Index changes are mirrored to
// the store, the query cache, the metrics gauges and the change feed topic.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/changefeed"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/sqldb"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"store_driver", cfg.Indexer.StoreDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	engine := indexer.NewEngine(cfg.Indexer)
	checker := health.NewChecker()

	var snapshots indexer.SnapshotWriter
	if cfg.Indexer.StoreDriver == "snapshot" {
		if err := restoreSnapshot(engine, cfg.Indexer.SnapshotPath); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
		snapshots = indexer.NewMetricsSnapshotWriter(m, segment.NewWriter(cfg.Indexer.SnapshotPath))
		engine.StartSnapshotLoop(ctx, snapshots, cfg.Indexer.SnapshotInterval)
		slog.Info("snapshot loop started",
			"path", cfg.Indexer.SnapshotPath,
			"interval", cfg.Indexer.SnapshotInterval,
		)
	} else {
		db, err := sqldb.Open(cfg)
		if err != nil {
			slog.Error("failed to open index store", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pages := repository.New(db.DB, db.Dialect)
		indexStore := store.New(db.DB, db.Dialect, resilience.RetryConfig{
			MaxAttempts:  cfg.Indexer.StoreRetry.MaxAttempts,
			InitialDelay: cfg.Indexer.StoreRetry.InitialDelay,
			MaxDelay:     cfg.Indexer.StoreRetry.MaxDelay,
		})
		if err := pages.Migrate(ctx); err != nil {
			slog.Error("failed to migrate pages table", "error", err)
			os.Exit(1)
		}
		if err := indexStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate index store", "error", err)
			os.Exit(1)
		}
		dump, err := indexStore.Load(ctx)
		if err != nil {
			slog.Error("failed to load index store", "error", err)
			os.Exit(1)
		}
		engine.SetBuildDocumentDelegate(pages.BuildDocument(ctx))
		stats, err := engine.InitializeData(dump.Documents, dump.Words, dump.Mappings)
		if err != nil {
			slog.Error("failed to initialize index", "error", err)
			os.Exit(1)
		}
		slog.Info("index restored from store",
			"documents", stats.Documents,
			"words", stats.Words,
			"mappings", stats.Mappings,
			"skipped_mappings", stats.SkippedMappings,
		)
		engine.AddListener(indexStore)

		checker.Register("database", health.Ping(db.DB.PingContext, health.StatusDown, db.Dialect.String()))
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		engine.AddListener(queryCache)
		slog.Info("search cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	engine.AddListener(indexer.NewMetricsListener(m, engine))
	indexer.RecordStats(m, engine)

	feedProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexChanges)
	defer feedProducer.Close()
	engine.AddListener(changefeed.New(feedProducer, resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Indexer.Changefeed.FailureThreshold,
		ResetTimeout:     cfg.Indexer.Changefeed.ResetTimeout,
	}, m))
	slog.Info("change feed enabled", "topic", cfg.Kafka.Topics.IndexChanges)

	pageConsumer := consumer.New(kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.PageEvents,
		consumer.HandleMessage(engine, m),
	))
	go func() {
		if err := pageConsumer.Start(ctx); err != nil {
			slog.Error("page consumer error", "error", err)
		}
	}()
	slog.Info("consuming page events",
		"topic", cfg.Kafka.Topics.PageEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d words", engine.TotalDocuments(), engine.TotalWords()),
		}
	})
	if redisClient != nil {
		checker.Register("redis", health.Ping(redisClient.Ping, health.StatusDegraded, cfg.Redis.Addr))
	}

	h := handler.New(executor.New(engine), queryCache, engine, m, cfg.Search)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.CORS(middleware.NewCORSConfig(cfg.Server.CORSOrigins, http.MethodGet, http.MethodPost))(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port,
			metrics.Route{Pattern: "GET /health/live", Handler: checker.LiveHandler()},
			metrics.Route{Pattern: "GET /health/ready", Handler: checker.ReadyHandler()},
		)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if snapshots != nil {
		if err := engine.Snapshot(snapshots); err != nil {
			slog.Error("final snapshot failed", "error", err)
		}
	}
	slog.Info("search service stopped")
}

// restoreSnapshot loads the snapshot at path into engine. A missing
// snapshot leaves the index empty.
func restoreSnapshot(engine *indexer.Engine, path string) error {
	engine.SetBuildDocumentDelegate(func(d index.DumpedDocument) index.Document {
		return ingestion.PageFromDumped(d)
	})
	reader, err := segment.OpenReader(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no snapshot found, starting with an empty index", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	dump := reader.Dump()
	stats, err := engine.InitializeData(dump.Documents, dump.Words, dump.Mappings)
	if err != nil {
		return fmt.Errorf("initializing index from snapshot: %w", err)
	}
	slog.Info("index restored from snapshot",
		"path", path,
		"documents", stats.Documents,
		"words", stats.Words,
		"mappings", stats.Mappings,
	)
	return nil
}
