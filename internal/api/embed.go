package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/inkwell-systems/scriptorium/internal/pipeline"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// BatchRunner executes an embedding batch.
type BatchRunner interface {
	Run(ctx context.Context, req pipeline.BatchRequest) (pipeline.BatchResult, error)
}

// EmbedHandler exposes the batch embedding endpoint.
type EmbedHandler struct {
	runner BatchRunner
	logger *slog.Logger
}

// NewEmbedHandler creates an EmbedHandler.
func NewEmbedHandler(runner BatchRunner, logger *slog.Logger) *EmbedHandler {
	return &EmbedHandler{runner: runner, logger: logger}
}

type embedRequest struct {
	IDs             []string `json:"ids"`
	Table           string   `json:"table"`
	ContentColumn   string   `json:"contentColumn"`
	EmbeddingColumn string   `json:"embeddingColumn"`
}

// Embed handles POST /embed. Individual row failures are swallowed by the
// runner; only an invalid target or a failed row selection surfaces here.
func (h *EmbedHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ids must be UUIDs")
			return
		}
		ids = append(ids, id)
	}

	result, err := h.runner.Run(r.Context(), pipeline.BatchRequest{
		IDs:             ids,
		Table:           req.Table,
		ContentColumn:   req.ContentColumn,
		EmbeddingColumn: req.EmbeddingColumn,
	})
	if err != nil {
		if errors.Is(err, store.ErrBadIdentifier) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("batch selection failed", "table", req.Table, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to select batch rows")
		return
	}

	h.logger.Info("embed batch finished",
		"table", req.Table,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	w.WriteHeader(http.StatusNoContent)
}
