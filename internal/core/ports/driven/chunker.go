package driven

import "github.com/custodia-labs/sales-support-ai/internal/core/domain"

// Chunker splits document text into overlapping windows for embedding.
type Chunker interface {
	// Chunks returns the non-empty windows of text, numbered by Position.
	// Embeddings are left unset.
	Chunks(documentID, text string) []domain.DocumentChunk
}
