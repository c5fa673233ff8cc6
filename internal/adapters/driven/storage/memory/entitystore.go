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

// Ensure EntityStore implements the interface.
var _ driven.EntityStore = (*EntityStore)(nil)

// EntityStore is an in-memory implementation of driven.EntityStore.
// Entities are kept in insertion order, which is the similarity tie-break.
type EntityStore struct {
	mu       sync.RWMutex
	entities []domain.ExtractedEntity
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{}
}

// SaveEntity inserts an entity row.
func (s *EntityStore) SaveEntity(_ context.Context, entity *domain.ExtractedEntity) error {
	if entity == nil || entity.ID == "" || entity.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entity
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.entities = append(s.entities, stored)
	return nil
}

// ListEntities returns a document's entities in insertion order.
func (s *EntityStore) ListEntities(_ context.Context, documentID string) ([]domain.ExtractedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ExtractedEntity, 0)
	for _, e := range s.entities {
		if e.DocumentID == documentID {
			result = append(result, e)
		}
	}
	return result, nil
}

// DeleteEntities removes every entity of a document.
func (s *EntityStore) DeleteEntities(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = slices.DeleteFunc(s.entities, func(e domain.ExtractedEntity) bool {
		return e.DocumentID == documentID
	})
	return nil
}

// MatchEntities ranks embedded entities by cosine similarity.
func (s *EntityStore) MatchEntities(_ context.Context, q domain.VectorQuery) ([]domain.EntityMatch, error) {
	s.mu.RLock()
	candidates := make([]domain.ExtractedEntity, 0, len(s.entities))
	for i := range s.entities {
		e := &s.entities[i]
		if q.DocumentID != "" && e.DocumentID != q.DocumentID {
			continue
		}
		if e.Embedding == nil || !rank.TypeMatches(e, q.TypeFilter) {
			continue
		}
		candidates = append(candidates, *e)
	}
	s.mu.RUnlock()

	top := rank.Top(candidates, func(e domain.ExtractedEntity) []float32 { return e.Embedding }, q.Vector, q.Threshold, q.Limit)
	matches := make([]domain.EntityMatch, len(top))
	for i, m := range top {
		matches[i] = domain.EntityMatch{Entity: m.Item, Similarity: m.Similarity}
	}
	return matches, nil
}

// FilterEntities applies the lexical fallback filter.
func (s *EntityStore) FilterEntities(_ context.Context, q domain.LexicalQuery) ([]domain.ExtractedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ExtractedEntity, 0)
	for i := range s.entities {
		if !rank.LexicalMatches(&s.entities[i], q) {
			continue
		}
		result = append(result, s.entities[i])
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result, nil
}
