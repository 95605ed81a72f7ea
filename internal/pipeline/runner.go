// Package pipeline implements the batch embedding stage: select unembedded
// rows, sanitize their text, compute vectors and persist them, isolating
// failures per row.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/inkwell-systems/scriptorium/internal/metrics"
	"github.com/inkwell-systems/scriptorium/internal/sanitize"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// RowSource selects and updates batch rows.
type RowSource interface {
	SelectUnembedded(ctx context.Context, table, contentColumn, embeddingColumn string, ids []uuid.UUID) ([]store.Row, error)
	UpdateEmbedding(ctx context.Context, table, embeddingColumn string, id uuid.UUID, embedding pgvector.Vector) error
}

// Embedder produces fixed-width vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	Name() string
}

// BatchRequest names the rows and columns a batch operates on.
type BatchRequest struct {
	IDs             []uuid.UUID
	Table           string
	ContentColumn   string
	EmbeddingColumn string
}

// BatchResult summarizes per-row outcomes.
type BatchResult struct {
	Selected int `json:"selected"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Runner executes embedding batches serially, one row at a time.
type Runner struct {
	rows     RowSource
	embedder Embedder
	maxChars int
	logger   *slog.Logger
}

// NewRunner creates a batch runner. maxChars bounds sanitized row text.
func NewRunner(rows RowSource, embedder Embedder, maxChars int, logger *slog.Logger) *Runner {
	return &Runner{
		rows:     rows,
		embedder: embedder,
		maxChars: maxChars,
		logger:   logger,
	}
}

// Run processes a batch. It returns an error only when the target names are
// invalid or the initial row selection fails; every per-row failure is
// logged, counted and skipped, so a single bad row never aborts the batch.
func (r *Runner) Run(ctx context.Context, req BatchRequest) (BatchResult, error) {
	var result BatchResult

	if err := store.ValidateBatchTarget(req.Table, req.ContentColumn, req.EmbeddingColumn); err != nil {
		return result, err
	}
	if len(req.IDs) == 0 {
		return result, nil
	}

	rows, err := r.rows.SelectUnembedded(ctx, req.Table, req.ContentColumn, req.EmbeddingColumn, req.IDs)
	if err != nil {
		return result, fmt.Errorf("selecting batch rows: %w", err)
	}
	result.Selected = len(rows)

	for _, row := range rows {
		switch r.processRow(ctx, req, row) {
		case rowEmbedded:
			result.Embedded++
		case rowSkipped:
			result.Skipped++
		case rowFailed:
			result.Failed++
		}
	}

	r.logger.Info("batch complete",
		"table", req.Table,
		"selected", result.Selected,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

type rowOutcome int

const (
	rowEmbedded rowOutcome = iota
	rowSkipped
	rowFailed
)

func (r *Runner) processRow(ctx context.Context, req BatchRequest, row store.Row) rowOutcome {
	text, ok := sanitize.Clean(row.Content, r.maxChars)
	if !ok {
		r.logger.Debug("row content too short, skipping", "id", row.ID)
		metrics.RowsTotal.WithLabelValues("skipped").Inc()
		return rowSkipped
	}

	start := time.Now()
	vec, err := r.embedder.Embed(ctx, text)
	metrics.EmbedDuration.WithLabelValues(r.embedder.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn("embedding row failed", "id", row.ID, "error", err)
		metrics.RowsTotal.WithLabelValues("failed").Inc()
		return rowFailed
	}

	if err := r.rows.UpdateEmbedding(ctx, req.Table, req.EmbeddingColumn, row.ID, vec); err != nil {
		r.logger.Warn("persisting embedding failed", "id", row.ID, "error", err)
		metrics.RowsTotal.WithLabelValues("failed").Inc()
		return rowFailed
	}

	metrics.RowsTotal.WithLabelValues("embedded").Inc()
	return rowEmbedded
}
