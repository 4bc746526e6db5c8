package indexer

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/metrics"
)

// NewMetricsListener returns a listener that counts mutations by kind and
// keeps the index size gauges current.
func NewMetricsListener(m *metrics.Metrics, e *Engine) index.ChangeListener {
	return index.ChangeListenerFunc(func(_ context.Context, change *index.Change) error {
		m.IndexChangesTotal.WithLabelValues(change.Kind.String()).Inc()
		RecordStats(m, e)
		return nil
	})
}

// RecordStats copies the engine statistics into the index gauges.
func RecordStats(m *metrics.Metrics, e *Engine) {
	m.IndexDocuments.Set(float64(e.TotalDocuments()))
	m.IndexWords.Set(float64(e.TotalWords()))
	m.IndexOccurrences.Set(float64(e.TotalOccurrences()))
}

type countingSnapshotWriter struct {
	metrics *metrics.Metrics
	next    SnapshotWriter
}

// NewMetricsSnapshotWriter counts the snapshots written through w by
// outcome.
func NewMetricsSnapshotWriter(m *metrics.Metrics, w SnapshotWriter) SnapshotWriter {
	return &countingSnapshotWriter{metrics: m, next: w}
}

func (c *countingSnapshotWriter) Write(dump index.Dump) (string, error) {
	name, err := c.next.Write(dump)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.SnapshotsTotal.WithLabelValues(status).Inc()
	return name, err
}
