// Package embeddings provides a swappable interface for text embedding
// generation, plus decorators for retry, width fitting and caching.
package embeddings

import (
	"context"

	pgvector "github.com/pgvector/pgvector-go"
)

// DefaultWidth is the default width of the sections vector column.
const DefaultWidth = 1024

// Provider generates text embeddings.
type Provider interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) (pgvector.Vector, error)

	// Name returns the provider name for logging.
	Name() string
}
