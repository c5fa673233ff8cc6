package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

func newDoc(id, owner string, ctx domain.DocumentContext, status domain.DocumentStatus) *domain.UploadedDocument {
	return &domain.UploadedDocument{
		ID:      id,
		Owner:   owner,
		Name:    id + ".txt",
		Context: ctx,
		Status:  status,
	}
}

func TestDocumentStore_CreateAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "a@example.com", domain.ContextSales, domain.StatusPendingExtraction)))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Owner)
	assert.Equal(t, domain.StatusPendingExtraction, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.ExtractedText)
}

func TestDocumentStore_CreateDuplicate(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	doc := newDoc("doc-1", "a", domain.ContextSales, domain.StatusPendingExtraction)

	require.NoError(t, store.CreateDocument(ctx, doc))
	assert.ErrorIs(t, store.CreateDocument(ctx, doc), domain.ErrInvalidInput)
}

func TestDocumentStore_NotFound(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.UpdateStatus(ctx, domain.StatusUpdate{DocumentID: "missing", Status: domain.StatusTextExtracted})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.DeleteDocument(ctx, "missing"), domain.ErrNotFound)
}

func TestDocumentStore_UpdateStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "a", domain.ContextSales, domain.StatusExtractionInProgress)))

	updated, err := store.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:    "doc-1",
		Status:        domain.StatusTextExtracted,
		ExtractedText: domain.StringPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTextExtracted, updated.Status)
	require.NotNil(t, updated.ExtractedText)
	assert.Empty(t, *updated.ExtractedText)
	assert.Nil(t, updated.ErrorMessage)

	_, err = store.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:   "doc-1",
		Status:       domain.StatusAnalysisFailed,
		ErrorMessage: domain.StringPtr("boom"),
	})
	require.NoError(t, err)

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "boom", *got.ErrorMessage)
	require.NotNil(t, got.ExtractedText, "text survives updates that do not set it")
}

func TestDocumentStore_UpdateStatus_Expected(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "a", domain.ContextSales, domain.StatusAnalysisCompleteAll)))

	_, err := store.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:   "doc-1",
		Status:       domain.StatusExtractionInProgress,
		ExpectedFrom: []domain.DocumentStatus{domain.StatusPendingExtraction},
	})
	assert.ErrorIs(t, err, domain.ErrStaleStatus)

	got, _ := store.GetDocument(ctx, "doc-1")
	assert.Equal(t, domain.StatusAnalysisCompleteAll, got.Status)
}

func TestDocumentStore_UpdateStatus_OnlyOneRacerWins(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "a", domain.ContextSales, domain.StatusPendingExtraction)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateStatus(ctx, domain.StatusUpdate{
				DocumentID:   "doc-1",
				Status:       domain.StatusExtractionInProgress,
				ExpectedFrom: []domain.DocumentStatus{domain.StatusPendingExtraction},
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc("s1", "a", domain.ContextSales, domain.StatusAnalysisCompleteAll)))
	require.NoError(t, store.CreateDocument(ctx, newDoc("s2", "a", domain.ContextSales, domain.StatusExtractionFailed)))
	require.NoError(t, store.CreateDocument(ctx, newDoc("s3", "b", domain.ContextSales, domain.StatusTextExtracted)))
	require.NoError(t, store.CreateDocument(ctx, newDoc("p1", "a", domain.ContextSupport, domain.StatusEmbeddingCompleted)))
	require.NoError(t, store.CreateDocument(ctx, newDoc("s4", "a", domain.ContextSales, domain.StatusTextExtracted)))

	docs, err := store.ListDocuments(ctx, domain.DocumentFilter{
		Owner:    "a",
		Context:  domain.ContextSales,
		Statuses: domain.SearchableStatuses(),
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "s4", docs[0].ID, "newest first")
	assert.Equal(t, "s1", docs[1].ID)

	docs, err = store.ListDocuments(ctx, domain.DocumentFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.ListDocuments(ctx, domain.DocumentFilter{Owner: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.CreateDocument(ctx, newDoc("doc-1", "a", domain.ContextSales, domain.StatusTextExtracted)))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	docs, _ := store.ListDocuments(ctx, domain.DocumentFilter{})
	assert.Empty(t, docs)
}
