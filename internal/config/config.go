// Package config provides environment-based configuration for Scriptorium.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/inkwell-systems/scriptorium/internal/credentials"
)

// Config holds all configuration for the Scriptorium service.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Database (PostgreSQL with pgvector)
	DatabaseURL string

	// Object storage
	StorageURL        string // base URL of the storage API
	StorageServiceKey string // service key for object downloads
	StorageBucket     string // the one bucket ingestion reacts to

	// NATS event bus
	NatsURL string

	// Processing endpoint called by the ingestion trigger
	ProcessEndpoint  string
	ServiceToken     string // bearer token for internal endpoints
	ServiceTokenFile string // fernet-encrypted token file, used when ServiceToken is unset
	CredentialKey    string // fernet key for ServiceTokenFile

	// Embeddings
	EmbeddingBackend    string // "simple", "openai" or "local"
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	EmbeddingSidecarURL string
	EmbeddingWidth      int // fixed width of the sections vector column
	EmbedMaxAttempts    int
	EmbedBaseDelay      time.Duration

	// Embedding cache (optional)
	RedisAddr string
	CacheTTL  time.Duration

	// Sanitizer
	SanitizeMaxChars int

	// Segmentation
	SegmentChunkSize    int
	SegmentChunkOverlap int

	// Rate limiting (public routes)
	SearchRateLimit int
	RateWindow      time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Port:                envInt("SCRIPTORIUM_PORT", 8600),
		LogLevel:            envStr("SCRIPTORIUM_LOG_LEVEL", "info"),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		StorageURL:          envStr("STORAGE_URL", ""),
		StorageServiceKey:   envStr("STORAGE_SERVICE_KEY", ""),
		StorageBucket:       envStr("STORAGE_BUCKET", "documents"),
		NatsURL:             envStr("NATS_URL", ""),
		ProcessEndpoint:     envStr("PROCESS_ENDPOINT", ""),
		ServiceToken:        envStr("SERVICE_TOKEN", ""),
		ServiceTokenFile:    envStr("SERVICE_TOKEN_FILE", ""),
		CredentialKey:       envStr("CREDENTIAL_KEY", ""),
		EmbeddingBackend:    envStr("EMBEDDING_BACKEND", "simple"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       envStr("OPENAI_BASE_URL", ""),
		OpenAIModel:         envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingSidecarURL: envStr("EMBEDDING_SIDECAR_URL", "http://localhost:8601"),
		EmbeddingWidth:      envInt("EMBEDDING_WIDTH", 1024),
		EmbedMaxAttempts:    envInt("EMBED_MAX_ATTEMPTS", 3),
		EmbedBaseDelay:      envDuration("EMBED_BASE_DELAY", time.Second),
		RedisAddr:           envStr("REDIS_ADDR", ""),
		CacheTTL:            envDuration("EMBED_CACHE_TTL", 24*time.Hour),
		SanitizeMaxChars:    envInt("SANITIZE_MAX_CHARS", 8000),
		SegmentChunkSize:    envInt("SEGMENT_CHUNK_SIZE", 1500),
		SegmentChunkOverlap: envInt("SEGMENT_CHUNK_OVERLAP", 100),
		SearchRateLimit:     envInt("SEARCH_RATE_LIMIT", 60),
		RateWindow:          time.Minute,
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// The pipeline this service replaces carried its outbound credential in
	// plaintext inside the trigger definition. Here the token comes from the
	// environment, or from an encrypted file when a credential key is set.
	if c.ServiceToken == "" && c.ServiceTokenFile != "" {
		token, err := loadEncryptedToken(c.ServiceTokenFile, c.CredentialKey)
		if err != nil {
			return nil, fmt.Errorf("loading service token: %w", err)
		}
		c.ServiceToken = token
	}

	return c, nil
}

func loadEncryptedToken(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("CREDENTIAL_KEY is required to read %s", path)
	}
	enc, err := credentials.NewEncryptor(key)
	if err != nil {
		return "", err
	}
	return enc.Decrypt(string(data))
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
