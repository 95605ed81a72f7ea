// Package metrics defines Prometheus metrics for the ingestion and
// embedding pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RowsTotal counts batch rows by outcome: "embedded", "skipped", "failed".
	RowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptorium",
			Name:      "batch_rows_total",
			Help:      "Batch rows processed, by outcome",
		},
		[]string{"outcome"},
	)

	// EmbedDuration observes embedding provider call latency per row.
	EmbedDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scriptorium",
			Name:      "embed_duration_seconds",
			Help:      "Embedding generation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// DocumentsIngested counts documents created by the ingestion trigger.
	DocumentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scriptorium",
			Name:      "documents_ingested_total",
			Help:      "Documents created from storage events",
		},
	)

	// SectionsInserted counts sections written by the processing endpoint.
	SectionsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scriptorium",
			Name:      "sections_inserted_total",
			Help:      "Sections inserted by document processing",
		},
	)

	// EmbeddingCacheTotal counts embedding cache hits and misses.
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptorium",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"},
	)
)

var registered bool

// Register registers all pipeline metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	registered = true
	prometheus.MustRegister(
		RowsTotal,
		EmbedDuration,
		DocumentsIngested,
		SectionsInserted,
		EmbeddingCacheTotal,
	)
}
