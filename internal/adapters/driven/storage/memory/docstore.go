package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.UploadedDocument
	order     []string
	now       func() time.Time
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.UploadedDocument),
		now:       time.Now,
	}
}

// CreateDocument inserts a document row.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.UploadedDocument) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return domain.ErrInvalidInput
	}
	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.documents[doc.ID] = stored
	s.order = append(s.order, doc.ID)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.UploadedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// UpdateStatus applies a status transition, checking ExpectedFrom first.
func (s *DocumentStore) UpdateStatus(_ context.Context, update domain.StatusUpdate) (*domain.UploadedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[update.DocumentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if len(update.ExpectedFrom) > 0 && !slices.Contains(update.ExpectedFrom, doc.Status) {
		return nil, domain.ErrStaleStatus
	}

	doc.Status = update.Status
	doc.ErrorMessage = update.ErrorMessage
	if update.ExtractedText != nil {
		text := *update.ExtractedText
		doc.ExtractedText = &text
	}
	if update.AnalyzedAt != nil {
		at := *update.AnalyzedAt
		doc.AnalyzedAt = &at
	}
	doc.UpdatedAt = s.now()

	s.documents[doc.ID] = doc
	return &doc, nil
}

// ListDocuments returns matching documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.UploadedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UploadedDocument, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		doc := s.documents[s.order[i]]
		if filter.Owner != "" && doc.Owner != filter.Owner {
			continue
		}
		if filter.Context != "" && doc.Context != filter.Context {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, doc.Status) {
			continue
		}
		result = append(result, doc)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// DeleteDocument removes a document row.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}
