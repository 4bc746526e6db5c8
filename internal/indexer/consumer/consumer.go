// Package consumer reads page events from Kafka and applies them to the
// indexer engine.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
)

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that stores or removes the
// page each event describes. Undecodable and unknown events are dropped so
// they do not block the partition; indexing failures are returned so the
// consumer retries the event. Storing is idempotent, so a retried event
// whose in-memory change already applied is harmless. m may be nil.
func HandleMessage(engine *indexer.Engine, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	count := func(op ingestion.Op, status string) {
		if m != nil {
			m.PageEventsTotal.WithLabelValues(string(op), status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.PageEvent](value)
		if err != nil {
			logger.Error("failed to decode page event",
				"error", err,
				"key", string(key),
			)
			count("unknown", "invalid")
			return nil
		}
		logger.Debug("processing page event",
			"op", event.Op,
			"page_id", event.PageID,
			"name", event.Name,
		)

		page := ingestion.PageFromEvent(&event)
		switch event.Op {
		case ingestion.OpStore:
			words, err := engine.StoreDocument(ctx, page, page.Keywords(), page.Content())
			if err != nil {
				count(event.Op, "error")
				return fmt.Errorf("indexing page %d: %w", event.PageID, err)
			}
			logger.Info("page indexed",
				"page_id", event.PageID,
				"name", event.Name,
				"words", words,
			)
		case ingestion.OpRemove:
			if err := engine.RemoveDocument(ctx, page); err != nil {
				count(event.Op, "error")
				return fmt.Errorf("removing page %d from index: %w", event.PageID, err)
			}
			logger.Info("page removed from index",
				"page_id", event.PageID,
				"name", event.Name,
			)
		default:
			logger.Error("unknown page event op",
				"op", event.Op,
				"key", string(key),
			)
			count(event.Op, "invalid")
			return nil
		}
		count(event.Op, "ok")
		return nil
	}
}
