package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/inkwell-systems/scriptorium/internal/metrics"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// DocumentGetter loads document records.
type DocumentGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Document, error)
}

// SectionInserter persists parsed sections.
type SectionInserter interface {
	InsertSections(ctx context.Context, documentID uuid.UUID, contents []string) (int, error)
}

// ObjectDownloader fetches stored objects.
type ObjectDownloader interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

// Segmenter splits document text into sections.
type Segmenter interface {
	Segment(text string) ([]string, error)
}

// ProcessHandler turns an uploaded document into section rows.
type ProcessHandler struct {
	documents DocumentGetter
	sections  SectionInserter
	storage   ObjectDownloader
	segmenter Segmenter
	bucket    string
	logger    *slog.Logger
}

// NewProcessHandler creates a ProcessHandler.
func NewProcessHandler(documents DocumentGetter, sections SectionInserter, storage ObjectDownloader, segmenter Segmenter, bucket string, logger *slog.Logger) *ProcessHandler {
	return &ProcessHandler{
		documents: documents,
		sections:  sections,
		storage:   storage,
		segmenter: segmenter,
		bucket:    bucket,
		logger:    logger,
	}
}

type processRequest struct {
	DocumentID string `json:"document_id"`
}

// Process handles POST /process: download, segment and store a document's
// sections. Responds 204 on success; any failure is a 500 with the error
// envelope.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "document_id must be a UUID")
		return
	}

	ctx := r.Context()

	doc, err := h.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Error("document not found", "document_id", docID)
			writeError(w, http.StatusInternalServerError, "document not found")
			return
		}
		h.logger.Error("loading document failed", "document_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	data, err := h.storage.Download(ctx, h.bucket, doc.StoragePath)
	if err != nil {
		h.logger.Error("object download failed", "document_id", docID, "path", doc.StoragePath, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to download document")
		return
	}

	contents, err := h.segmenter.Segment(string(data))
	if err != nil {
		h.logger.Error("segmentation failed", "document_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to segment document")
		return
	}

	inserted, err := h.sections.InsertSections(ctx, doc.ID, contents)
	if err != nil {
		h.logger.Error("inserting sections failed", "document_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store sections")
		return
	}
	metrics.SectionsInserted.Add(float64(inserted))

	h.logger.Info("document processed", "document_id", docID, "sections", inserted)
	w.WriteHeader(http.StatusNoContent)
}
