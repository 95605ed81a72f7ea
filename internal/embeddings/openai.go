package embeddings

import (
	"context"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider generates embeddings via an OpenAI-compatible API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIProvider creates a new OpenAI embedding provider. baseURL may be
// empty for the default API endpoint, or point at any OpenAI-compatible
// server.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Embed generates an embedding using the OpenAI API. The native output width
// is whatever the model produces; the adapter fits it to the column width.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("calling embeddings API: %w", err)
	}
	if len(resp.Data) == 0 {
		return pgvector.Vector{}, fmt.Errorf("no embeddings returned")
	}
	return pgvector.NewVector(resp.Data[0].Embedding), nil
}
