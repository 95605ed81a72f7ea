package api

import (
	"net/http"
	"time"

	"github.com/inkwell-systems/scriptorium/internal/ingest"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// HealthHandler provides health and stats endpoints.
type HealthHandler struct {
	db        *store.DB
	documents *store.DocumentStore
	sections  *store.SectionStore
	events    *ingest.Client
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. events may be nil when the
// service runs without an event bus.
func NewHealthHandler(db *store.DB, documents *store.DocumentStore, sections *store.SectionStore, events *ingest.Client) *HealthHandler {
	return &HealthHandler{
		db:        db,
		documents: documents,
		sections:  sections,
		events:    events,
		startTime: time.Now(),
	}
}

// Health returns the service health status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "connected"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "disconnected"
	}

	eventsStatus := "disconnected"
	if h.events != nil && h.events.IsConnected() {
		eventsStatus = "connected"
	}

	resp := map[string]any{
		"status":         "healthy",
		"database":       dbStatus,
		"events":         eventsStatus,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}
	if dbStatus == "disconnected" {
		resp["status"] = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats returns document and section counts, including embedding coverage.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docCount, _ := h.documents.Count(ctx)
	total, embedded, _ := h.sections.Count(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"document_count":    docCount,
		"section_count":     total,
		"embedded_sections": embedded,
		"uptime_seconds":    int(time.Since(h.startTime).Seconds()),
	})
}
