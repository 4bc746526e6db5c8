// Package publisher persists wiki pages and publishes page events to Kafka
// for the indexer to consume.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/kafka"
)

const (
	StatusAccepted = "ACCEPTED"
	StatusPending  = "PENDING"
	StatusRemoved  = "REMOVED"
)

// EventPublisher is the subset of the Kafka producer the publisher needs.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher coordinates page persistence and Kafka event production.
type Publisher struct {
	pages    *repository.PageRepository
	producer EventPublisher
	now      func() time.Time
	logger   *slog.Logger
}

func New(pages *repository.PageRepository, producer EventPublisher) *Publisher {
	return &Publisher{
		pages:    pages,
		producer: producer,
		now:      time.Now,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Store persists the page and publishes a store event keyed by page ID. A
// failed publish leaves the page stored and reports it as pending.
func (p *Publisher) Store(ctx context.Context, req *ingestion.PageRequest) (*ingestion.PageResponse, error) {
	page, err := p.pages.Upsert(ctx, req, p.now())
	if err != nil {
		return nil, fmt.Errorf("storing page: %w", err)
	}

	status := StatusAccepted
	if err := p.publish(ctx, page.Event(ingestion.OpStore)); err != nil {
		p.logger.Error("failed to publish page event, page not indexed",
			"page_id", page.ID(),
			"name", page.Name(),
			"error", err,
		)
		status = StatusPending
	}
	return &ingestion.PageResponse{
		PageID: page.ID(),
		Name:   page.Name(),
		Status: status,
	}, nil
}

// Remove deletes the page called name and publishes a remove event. A
// missing page yields an error wrapping ErrDocumentNotFound.
func (p *Publisher) Remove(ctx context.Context, name string) (*ingestion.PageResponse, error) {
	id, err := p.pages.Delete(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("removing page: %w", err)
	}

	status := StatusRemoved
	event := ingestion.PageEvent{
		Op:        ingestion.OpRemove,
		PageID:    id,
		Name:      name,
		UpdatedAt: p.now().UTC(),
	}
	if err := p.publish(ctx, event); err != nil {
		p.logger.Error("failed to publish page removal, page still indexed",
			"page_id", id,
			"name", name,
			"error", err,
		)
		status = StatusPending
	}
	return &ingestion.PageResponse{PageID: id, Name: name, Status: status}, nil
}

func (p *Publisher) publish(ctx context.Context, event ingestion.PageEvent) error {
	return p.producer.Publish(ctx, kafka.Event{
		Key:   strconv.Itoa(event.PageID),
		Value: event,
	})
}
