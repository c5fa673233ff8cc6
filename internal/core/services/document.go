package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// AnalyzedListLimit caps the catalog document listing.
const AnalyzedListLimit = 100

// DocumentService manages documents on behalf of their owners.
type DocumentService struct {
	docs     driven.DocumentStore
	entities driven.EntityStore
	chunks   driven.ChunkStore
	blobs    driven.BlobStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docs driven.DocumentStore,
	entities driven.EntityStore,
	chunks driven.ChunkStore,
	blobs driven.BlobStore,
) *DocumentService {
	return &DocumentService{
		docs:     docs,
		entities: entities,
		chunks:   chunks,
		blobs:    blobs,
	}
}

// ListAnalyzed returns the owner's catalog documents in a searchable status.
func (s *DocumentService) ListAnalyzed(ctx context.Context, owner string) ([]domain.UploadedDocument, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("owner is required: %w", domain.ErrInvalidInput)
	}
	return s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Owner:    owner,
		Context:  domain.ContextSales,
		Statuses: domain.SearchableStatuses(),
		Limit:    AnalyzedListLimit,
	})
}

// ListSupport returns the owner's support documents in any status.
func (s *DocumentService) ListSupport(ctx context.Context, owner string) ([]domain.UploadedDocument, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("owner is required: %w", domain.ErrInvalidInput)
	}
	return s.docs.ListDocuments(ctx, domain.DocumentFilter{
		Owner:   owner,
		Context: domain.ContextSupport,
	})
}

// Get returns a document with its entities and chunk count.
func (s *DocumentService) Get(ctx context.Context, owner, documentID string) (*domain.DocumentDetails, error) {
	doc, err := s.owned(ctx, owner, documentID)
	if err != nil {
		return nil, err
	}

	details := &domain.DocumentDetails{Document: *doc, Entities: []domain.ExtractedEntity{}}

	entities, err := s.entities.ListEntities(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	if entities != nil {
		details.Entities = entities
	}

	count, err := s.chunks.CountChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	details.Chunks = count

	return details, nil
}

// Delete removes a document's derived rows, its blob and the row itself.
// Blob removal failures are logged; the row is removed regardless.
func (s *DocumentService) Delete(ctx context.Context, owner, documentID string) error {
	doc, err := s.owned(ctx, owner, documentID)
	if err != nil {
		return err
	}

	if err := s.entities.DeleteEntities(ctx, documentID); err != nil {
		return fmt.Errorf("delete entities: %w", err)
	}
	if err := s.chunks.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if doc.Path != "" {
		if err := s.blobs.Delete(ctx, doc.Bucket, doc.Path); err != nil {
			logger.Warn("Document %s: removing stored file %s/%s failed: %v", documentID, doc.Bucket, doc.Path, err)
		}
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Document %s: deleted", documentID)
	return nil
}

func (s *DocumentService) owned(ctx context.Context, owner, documentID string) (*domain.UploadedDocument, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("owner and document id are required: %w", domain.ErrInvalidInput)
	}
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Owner != owner {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrForbidden)
	}
	return doc, nil
}
