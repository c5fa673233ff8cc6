package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestEmbeddingValues(t *testing.T) {
	resp := &genai.EmbedContentResponse{Embedding: &genai.ContentEmbedding{Values: []float32{0.1, 0.2, 0.3}}}

	vec, err := embeddingValues(resp, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	_, err = embeddingValues(resp, 768)
	assert.Error(t, err)

	_, err = embeddingValues(&genai.EmbedContentResponse{}, 3)
	assert.Error(t, err)
}
