// Package server provides the HTTP server setup for Scriptorium.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-systems/scriptorium/internal/api"
	"github.com/inkwell-systems/scriptorium/internal/config"
	"github.com/inkwell-systems/scriptorium/internal/embeddings"
	"github.com/inkwell-systems/scriptorium/internal/ingest"
	"github.com/inkwell-systems/scriptorium/internal/metrics"
	"github.com/inkwell-systems/scriptorium/internal/middleware"
	"github.com/inkwell-systems/scriptorium/internal/objstore"
	"github.com/inkwell-systems/scriptorium/internal/pipeline"
	"github.com/inkwell-systems/scriptorium/internal/segment"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// Server holds all dependencies for the Scriptorium HTTP server.
type Server struct {
	Router *chi.Mux
	Config *config.Config
	DB     *store.DB
	Logger *slog.Logger
}

// New creates a new Server with all routes configured. events may be nil
// when the service runs without the event bus.
func New(cfg *config.Config, db *store.DB, events *ingest.Client, embedder embeddings.Provider, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))
	r.Use(metrics.Middleware())
	r.Use(middleware.UserIdentity())
	r.Use(middleware.RequestLogging(logger))

	// Stores and collaborators
	documentStore := store.NewDocumentStore(db)
	sectionStore := store.NewSectionStore(db)
	storage := objstore.NewClient(cfg.StorageURL, cfg.StorageServiceKey)
	segmenter := segment.New(cfg.SegmentChunkSize, cfg.SegmentChunkOverlap)
	runner := pipeline.NewRunner(sectionStore, embedder, cfg.SanitizeMaxChars, logger)

	// Handlers
	healthHandler := api.NewHealthHandler(db, documentStore, sectionStore, events)
	processHandler := api.NewProcessHandler(documentStore, sectionStore, storage, segmenter, cfg.StorageBucket, logger)
	embedHandler := api.NewEmbedHandler(runner, logger)
	searchHandler := api.NewSearchHandler(sectionStore, embedder, cfg.SanitizeMaxChars, logger)
	documentHandler := api.NewDocumentHandler(documentStore, sectionStore, logger)

	searchRL := middleware.NewRateLimiter(cfg.SearchRateLimit, cfg.RateWindow)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health (no rate limit)
		r.Get("/health", healthHandler.Health)
		r.Get("/stats", healthHandler.Stats)

		// Internal pipeline endpoints, called by the ingestion trigger and
		// scheduled embedding jobs.
		r.Group(func(r chi.Router) {
			r.Use(middleware.ServiceAuth(cfg.ServiceToken))
			r.Post("/process", processHandler.Process)
			r.Post("/embed", embedHandler.Embed)
		})

		// User-facing reads
		r.Group(func(r chi.Router) {
			r.Use(searchRL.Middleware)
			r.Post("/search", searchHandler.Search)
			r.Get("/documents", documentHandler.List)
			r.Get("/documents/{id}", documentHandler.Get)
			r.Get("/documents/{id}/sections", documentHandler.Sections)
		})
	})

	return &Server{
		Router: r,
		Config: cfg,
		DB:     db,
		Logger: logger,
	}
}
