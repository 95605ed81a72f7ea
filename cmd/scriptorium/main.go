// Package main is the entry point for the Scriptorium service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell-systems/scriptorium/internal/config"
	"github.com/inkwell-systems/scriptorium/internal/embeddings"
	"github.com/inkwell-systems/scriptorium/internal/ingest"
	"github.com/inkwell-systems/scriptorium/internal/metrics"
	"github.com/inkwell-systems/scriptorium/internal/server"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("SCRIPTORIUM_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Embedding provider
	var provider embeddings.Provider
	switch cfg.EmbeddingBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OpenAI API key required for openai embedding backend")
			os.Exit(1)
		}
		provider = embeddings.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case "local":
		provider = embeddings.NewLocalProvider(cfg.EmbeddingSidecarURL)
	default:
		provider = embeddings.NewSimpleProvider(cfg.EmbeddingWidth)
	}

	// Optional cache in front of the provider
	if cfg.RedisAddr != "" {
		kv, err := embeddings.NewRedisKV(cfg.RedisAddr, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, running without embedding cache", "error", err)
		} else {
			defer kv.Close()
			provider = embeddings.NewCached(provider, kv, metrics.EmbeddingCacheTotal, logger)
			logger.Info("embedding cache enabled", "addr", cfg.RedisAddr)
		}
	}

	// Retry and width normalization wrap whatever provider is configured.
	embedder := embeddings.NewAdapter(provider, cfg.EmbeddingWidth, cfg.EmbedMaxAttempts, cfg.EmbedBaseDelay, logger)
	logger.Info("embedding provider initialized", "backend", embedder.Name(), "width", embedder.Width())

	// Storage events — optional, the service works without the bus
	var events *ingest.Client
	if cfg.NatsURL != "" {
		events, err = ingest.NewClient(cfg.NatsURL, logger)
		if err != nil {
			logger.Warn("failed to connect to NATS, running without storage events", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("connected to NATS", "url", cfg.NatsURL)

			documents := store.NewDocumentStore(db)
			notifier := ingest.NewProcessNotifier(cfg.ProcessEndpoint, cfg.ServiceToken, logger)
			subscriber := ingest.NewSubscriber(events, cfg.StorageBucket, documents, notifier, logger)
			if err := subscriber.Start(ctx); err != nil {
				logger.Warn("failed to start storage event subscriber", "error", err)
			} else {
				defer subscriber.Stop()
			}
		}
	}

	// Server
	srv := server.New(cfg, db, events, embedder, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("Scriptorium starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Scriptorium stopped")
}
