package driven

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// EntityStore persists analysed products and answers similarity queries.
type EntityStore interface {
	// SaveEntity inserts one entity row.
	SaveEntity(ctx context.Context, entity *domain.ExtractedEntity) error

	// ListEntities returns a document's entities in insertion order.
	ListEntities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error)

	// DeleteEntities removes every entity of a document.
	DeleteEntities(ctx context.Context, documentID string) error

	// MatchEntities returns entities with an embedding whose cosine
	// similarity to q.Vector is at least q.Threshold, ordered by
	// similarity descending then insertion order, capped at q.Limit.
	MatchEntities(ctx context.Context, q domain.VectorQuery) ([]domain.EntityMatch, error)

	// FilterEntities returns entities matching the lexical query in
	// insertion order.
	FilterEntities(ctx context.Context, q domain.LexicalQuery) ([]domain.ExtractedEntity, error)
}
