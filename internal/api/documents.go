package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-systems/scriptorium/internal/middleware"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// DocumentReader lists and loads documents.
type DocumentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]store.Document, error)
}

// SectionLister lists a document's sections.
type SectionLister interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]store.SectionMeta, error)
}

// DocumentHandler provides read access to documents and their sections.
// Access is scoped to the owning identity, mirroring the row-level-security
// policies in the database.
type DocumentHandler struct {
	documents DocumentReader
	sections  SectionLister
	logger    *slog.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(documents DocumentReader, sections SectionLister, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, sections: sections, logger: logger}
}

// List handles GET /documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	q := r.URL.Query()

	limit, offset := 50, 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	docs, err := h.documents.ListByOwner(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// Get handles GET /documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Sections handles GET /documents/{id}/sections.
func (h *DocumentHandler) Sections(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	sections, err := h.sections.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		h.logger.Error("listing sections failed", "document_id", doc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sections")
		return
	}
	if sections == nil {
		sections = []store.SectionMeta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

// ownedDocument loads the document from the URL and enforces ownership. A
// document owned by someone else is indistinguishable from a missing one.
func (h *DocumentHandler) ownedDocument(w http.ResponseWriter, r *http.Request) (*store.Document, bool) {
	userID := middleware.UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return nil, false
	}

	doc, err := h.documents.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return nil, false
		}
		h.logger.Error("loading document failed", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return nil, false
	}
	if doc.OwnerID != userID {
		writeError(w, http.StatusNotFound, "document not found")
		return nil, false
	}
	return doc, true
}
