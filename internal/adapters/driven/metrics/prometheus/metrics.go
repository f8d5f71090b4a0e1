// Package prometheus counts scoring progress with client_golang and writes
// it in the node exporter textfile format.
//
// Each run gets its own registry so nothing is registered globally.
package prometheus

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure RunMetrics implements the interface.
var _ driven.RunMetrics = (*RunMetrics)(nil)

// RunMetrics holds the counters of one scoring run.
type RunMetrics struct {
	path     string
	registry *prometheus.Registry

	documents      *prometheus.CounterVec
	batchesWritten prometheus.Counter
	batchesSkipped prometheus.Counter
	batchSize      prometheus.Histogram
	lastFlush      prometheus.Gauge
}

// New creates metrics flushed to path. An empty path keeps them in memory.
func New(path string) *RunMetrics {
	m := &RunMetrics{
		path:     path,
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccdarank_documents_scored_total",
				Help: "Documents scored, by outcome",
			},
			[]string{"status"},
		),
		batchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccdarank_checkpoint_batches_written_total",
			Help: "Checkpoint batches written",
		}),
		batchesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccdarank_checkpoint_batches_skipped_total",
			Help: "Batches skipped because a checkpoint already covers them",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ccdarank_checkpoint_batch_documents",
			Help:    "Documents per written checkpoint batch",
			Buckets: []float64{1, 5, 10, 15, 25, 50, 100},
		}),
		lastFlush: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ccdarank_last_flush_timestamp_seconds",
			Help: "Unix time the metrics were last written",
		}),
	}
	m.registry.MustRegister(m.documents, m.batchesWritten, m.batchesSkipped, m.batchSize, m.lastFlush)
	return m
}

// Factory returns a constructor producing fresh metrics per run.
func Factory(path string) func() driven.RunMetrics {
	return func() driven.RunMetrics { return New(path) }
}

// DocumentScored counts one document.
func (m *RunMetrics) DocumentScored(failed bool) {
	status := "ok"
	if failed {
		status = "failed"
	}
	m.documents.WithLabelValues(status).Inc()
}

// BatchWritten counts one written batch of the given size.
func (m *RunMetrics) BatchWritten(documents int) {
	m.batchesWritten.Inc()
	m.batchSize.Observe(float64(documents))
}

// BatchSkipped counts one skipped batch.
func (m *RunMetrics) BatchSkipped() {
	m.batchesSkipped.Inc()
}

// Flush writes the registry to the textfile path.
func (m *RunMetrics) Flush() error {
	if m.path == "" {
		return nil
	}
	m.lastFlush.Set(float64(time.Now().Unix()))
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}
