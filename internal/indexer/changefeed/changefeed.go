// Package changefeed publishes every index mutation to Kafka so other
// services can follow the index without reading its store.
package changefeed

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
)

const (
	clearKey    = "clear"
	breakerName = "changefeed"
)

// ChangeEvent is the Kafka payload describing one index mutation. Document,
// Words and Mappings are empty for index_cleared.
type ChangeEvent struct {
	Kind     string                    `json:"kind"`
	Document *index.DumpedDocument     `json:"document,omitempty"`
	Words    []index.DumpedWord        `json:"words,omitempty"`
	Mappings []index.DumpedWordMapping `json:"mappings,omitempty"`
	At       time.Time                 `json:"at"`
}

// EventPublisher is the subset of the Kafka producer the feed needs.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Listener is an index.ChangeListener publishing ChangeEvents keyed by the
// document's dump ID. Publishing is best effort: failures are logged and
// repeated failures open a circuit breaker that sheds events
// until the broker recovers.
type Listener struct {
	producer EventPublisher
	breaker  *resilience.CircuitBreaker
	now      func() time.Time
	logger   *slog.Logger
}

// New builds the listener. m may be nil; otherwise the breaker state is
// exported on the circuit_breaker_state gauge.
func New(producer EventPublisher, cb resilience.CircuitBreakerConfig, m *metrics.Metrics) *Listener {
	if m != nil {
		gauge := m.CircuitBreakerState.WithLabelValues(breakerName)
		gauge.Set(float64(resilience.StateClosed))
		cb.OnStateChange = func(_ string, _, to resilience.State) {
			gauge.Set(float64(to))
		}
	}
	return &Listener{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(breakerName, cb),
		now:      time.Now,
		logger:   slog.Default().With("component", "changefeed"),
	}
}

func (l *Listener) IndexChanged(ctx context.Context, change *index.Change) error {
	event := l.eventFor(change)
	key := clearKey
	if event.Document != nil {
		key = strconv.Itoa(event.Document.ID)
	}

	err := l.breaker.Execute(func() error {
		return l.producer.Publish(ctx, kafka.Event{Key: key, Value: event})
	})
	if err != nil {
		l.logger.Error("failed to publish index change",
			"kind", event.Kind,
			"key", key,
			"error", err,
		)
	}
	return nil
}

// eventFor renders change, rewriting IDs through the storer result when a
// store listener has already assigned permanent ones.
func (l *Listener) eventFor(change *index.Change) ChangeEvent {
	event := ChangeEvent{Kind: change.Kind.String(), At: l.now().UTC()}
	if change.Data == nil {
		return event
	}
	doc := change.Data.Document
	event.Document = &doc
	event.Words = append([]index.DumpedWord(nil), change.Data.Words...)
	event.Mappings = append([]index.DumpedWordMapping(nil), change.Data.Mappings...)

	result := change.Result
	if change.Kind != index.DocumentAdded || result == nil {
		return event
	}
	assigned := make(map[string]int, len(result.WordIDs))
	for _, w := range result.WordIDs {
		assigned[w.Text] = w.ID
	}
	remap := make(map[int]int, len(event.Words))
	for i, w := range event.Words {
		if id, ok := assigned[w.Text]; ok {
			remap[w.ID] = id
			event.Words[i].ID = id
		}
	}
	event.Document.ID = result.DocumentID
	for i, m := range event.Mappings {
		if id, ok := remap[m.WordID]; ok {
			event.Mappings[i].WordID = id
		}
		event.Mappings[i].DocumentID = result.DocumentID
	}
	return event
}
