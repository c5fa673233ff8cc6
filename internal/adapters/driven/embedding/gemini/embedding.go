// Package gemini provides an embedding service adapter using the Google
// Gemini embedding models.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Endpoint overrides the API endpoint.
	Endpoint string

	// Dimensions is the expected vector size (default: 768).
	Dimensions int
}

// EmbeddingService generates embeddings with a Gemini embedding model.
type EmbeddingService struct {
	client     *genai.Client
	model      *genai.EmbeddingModel
	name       string
	dimensions int
}

// NewEmbeddingService creates a Gemini embedding client.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &EmbeddingService{
		client:     client,
		model:      client.EmbeddingModel(cfg.Model),
		name:       cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	return embeddingValues(resp, s.dimensions)
}

// embeddingValues unwraps the response and checks the vector length.
func embeddingValues(resp *genai.EmbedContentResponse, dims int) ([]float32, error) {
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	if dims > 0 && len(resp.Embedding.Values) != dims {
		return nil, fmt.Errorf("gemini: embedding has %d dimensions, want %d", len(resp.Embedding.Values), dims)
	}
	return resp.Embedding.Values, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.name
}

// Ping fetches the model metadata.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.model.Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *EmbeddingService) Close() error {
	return s.client.Close()
}
