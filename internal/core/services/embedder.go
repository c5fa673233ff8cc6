package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// DefaultEmbedLimit is the number of characters sent to the embedding model.
const DefaultEmbedLimit = 8000

// Embedder wraps an EmbeddingService with input truncation, empty-input
// short-circuiting and output validation.
type Embedder struct {
	service driven.EmbeddingService
	limit   int
}

// NewEmbedder creates an embedder. A non-positive limit selects DefaultEmbedLimit.
func NewEmbedder(service driven.EmbeddingService, limit int) *Embedder {
	if limit <= 0 {
		limit = DefaultEmbedLimit
	}
	return &Embedder{service: service, limit: limit}
}

// Available reports whether an embedding service is configured.
func (e *Embedder) Available() bool {
	return e != nil && e.service != nil
}

// Embed returns the vector for text, or nil without calling the model when
// text is blank. A response of the wrong shape is an error.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !e.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := e.service.Embed(ctx, truncateRunes(text, e.limit))
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if len(vec) == 0 {
		return nil, fmt.Errorf("embed text: %w: empty vector", domain.ErrMalformedModelOutput)
	}
	if dims := e.service.Dimensions(); dims > 0 && len(vec) != dims {
		return nil, fmt.Errorf("embed text: %w: got %d dimensions, want %d",
			domain.ErrMalformedModelOutput, len(vec), dims)
	}
	return vec, nil
}
