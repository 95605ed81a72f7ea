package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/inkwell-systems/scriptorium/internal/middleware"
	"github.com/inkwell-systems/scriptorium/internal/sanitize"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// Searcher runs nearest-neighbor queries over embedded sections.
type Searcher interface {
	Search(ctx context.Context, ownerID string, query pgvector.Vector, limit int) ([]store.SearchResult, error)
}

// QueryEmbedder embeds search queries.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// SearchHandler provides semantic search over a user's sections.
type SearchHandler struct {
	sections Searcher
	embedder QueryEmbedder
	maxChars int
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(sections Searcher, embedder QueryEmbedder, maxChars int, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		sections: sections,
		embedder: embedder,
		maxChars: maxChars,
		logger:   logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Queries take the same cleanup as stored content so both sides of the
	// similarity live in the same text space. Short queries are fine; only
	// empty ones are rejected.
	query, _ := sanitize.Clean(req.Query, h.maxChars)
	if query == "" {
		writeError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	embedding, err := h.embedder.Embed(r.Context(), query)
	if err != nil {
		h.logger.Error("embedding query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to embed query")
		return
	}

	results, err := h.sections.Search(r.Context(), userID, embedding, req.Limit)
	if err != nil {
		h.logger.Error("section search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
