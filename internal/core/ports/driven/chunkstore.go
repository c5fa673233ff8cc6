package driven

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// ChunkStore persists support document chunks and answers similarity queries.
type ChunkStore interface {
	// SaveChunk inserts one chunk row.
	SaveChunk(ctx context.Context, chunk *domain.DocumentChunk) error

	// CountChunks returns the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// DeleteChunks removes every chunk of a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// MatchChunks returns chunks ranked like EntityStore.MatchEntities.
	// q.TypeFilter is ignored.
	MatchChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkMatch, error)
}
