package driven

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// DocumentStore persists uploaded documents and their lifecycle status.
// It is the single source of truth for pipeline state.
type DocumentStore interface {
	// CreateDocument inserts a new document row.
	CreateDocument(ctx context.Context, doc *domain.UploadedDocument) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.UploadedDocument, error)

	// UpdateStatus applies a single-row status transition. When
	// update.ExpectedFrom is non-empty and the current status is not in it,
	// nothing is written and domain.ErrStaleStatus is returned.
	UpdateStatus(ctx context.Context, update domain.StatusUpdate) (*domain.UploadedDocument, error)

	// ListDocuments returns documents matching the filter, newest first.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.UploadedDocument, error)

	// DeleteDocument removes a document row.
	// Returns domain.ErrNotFound if the document does not exist.
	DeleteDocument(ctx context.Context, id string) error
}
