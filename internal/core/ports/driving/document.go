package driving

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// DocumentService manages uploaded documents on behalf of their owners.
type DocumentService interface {
	// ListAnalyzed returns the owner's catalog documents that are ready for search.
	ListAnalyzed(ctx context.Context, owner string) ([]domain.UploadedDocument, error)

	// ListSupport returns the owner's support documents in any status.
	ListSupport(ctx context.Context, owner string) ([]domain.UploadedDocument, error)

	// Get returns a document with its derived rows.
	// Returns domain.ErrForbidden if owner does not own it.
	Get(ctx context.Context, owner, documentID string) (*domain.DocumentDetails, error)

	// Delete removes a document, its derived rows and its blob.
	// Returns domain.ErrForbidden if owner does not own it.
	Delete(ctx context.Context, owner, documentID string) error
}
