// Command ingestion starts the wiki page ingestion HTTP service.
//
// The service accepts pages via POST /api/v1/pages and removals via
// DELETE /api/v1/pages/{name}, rate-limits writers per client, validates them, persists pages to the pages
// table, and publishes page events to Kafka for the search service to index.
// It provides health endpoints at GET /health, /health/live and
// /health/ready.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/sqldb"
)

// main loads configuration, opens the page database, creates the Kafka
// producer, wires up the ingestion handler, and starts the HTTP server.
// Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(cfg)
	if err != nil {
		slog.Error("failed to open page database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	pages := repository.New(db.DB, db.Dialect)
	if err := pages.Migrate(ctx); err != nil {
		slog.Error("failed to migrate pages table", "error", err)
		os.Exit(1)
	}
	slog.Info("page database ready", "dialect", db.Dialect.String())

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.PageEvents)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.PageEvents)

	m := metrics.New()
	h := handler.New(publisher.New(pages, producer))

	checker := health.NewChecker()
	checker.Register("database", health.Ping(db.DB.PingContext, health.StatusDown, db.Dialect.String()))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/pages", h.StorePage)
	mux.HandleFunc("DELETE /api/v1/pages/{name}", h.RemovePage)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, time.Minute)
		defer limiter.Close()
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.CORS(middleware.NewCORSConfig(cfg.Server.CORSOrigins, http.MethodPost, http.MethodDelete))(chain)
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
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
