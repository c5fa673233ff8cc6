package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []domain.DocumentChunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// SaveChunk inserts a chunk row.
func (s *ChunkStore) SaveChunk(_ context.Context, chunk *domain.DocumentChunk) error {
	if chunk == nil || chunk.ID == "" || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *chunk
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.chunks = append(s.chunks, stored)
	return nil
}

// CountChunks returns the number of chunks for a document.
func (s *ChunkStore) CountChunks(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

// DeleteChunks removes every chunk of a document.
func (s *ChunkStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = slices.DeleteFunc(s.chunks, func(c domain.DocumentChunk) bool {
		return c.DocumentID == documentID
	})
	return nil
}

// MatchChunks ranks chunks by cosine similarity.
func (s *ChunkStore) MatchChunks(_ context.Context, q domain.VectorQuery) ([]domain.ChunkMatch, error) {
	s.mu.RLock()
	candidates := make([]domain.DocumentChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if q.DocumentID != "" && c.DocumentID != q.DocumentID {
			continue
		}
		candidates = append(candidates, c)
	}
	s.mu.RUnlock()

	top := rank.Top(candidates, func(c domain.DocumentChunk) []float32 { return c.Embedding }, q.Vector, q.Threshold, q.Limit)
	matches := make([]domain.ChunkMatch, len(top))
	for i, m := range top {
		matches[i] = domain.ChunkMatch{Chunk: m.Item, Similarity: m.Similarity}
	}
	return matches, nil
}
