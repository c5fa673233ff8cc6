package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// createTestDocument inserts a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, id, owner string, docCtx domain.DocumentContext, createdAt time.Time) {
	t.Helper()
	err := store.DocumentStore().CreateDocument(context.Background(), &domain.UploadedDocument{
		ID:        id,
		Owner:     owner,
		Name:      id + ".txt",
		MediaType: "text/plain",
		Size:      12,
		Bucket:    docCtx.Bucket(),
		Path:      owner + "/" + id,
		Context:   docCtx,
		Source:    domain.SourceUpload,
		Status:    domain.StatusPendingExtraction,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata.db"), store.Path())
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestMigrate_NoopWhenCurrent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.migrate())

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDocumentStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, created)

	doc, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", doc.Owner)
	assert.Equal(t, domain.ContextSales, doc.Context)
	assert.Equal(t, domain.BucketSales, doc.Bucket)
	assert.Equal(t, domain.StatusPendingExtraction, doc.Status)
	assert.Equal(t, int64(12), doc.Size)
	assert.True(t, doc.CreatedAt.Equal(created))
	assert.Nil(t, doc.ExtractedText)
	assert.Nil(t, doc.AnalyzedAt)

	_, err = store.DocumentStore().GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.DocumentStore().CreateDocument(ctx, &domain.UploadedDocument{}), domain.ErrInvalidInput)
}

func TestDocumentStore_UpdateStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, time.Now())

	doc, err := docs.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:    "doc-1",
		Status:        domain.StatusTextExtracted,
		ExtractedText: domain.StringPtr("hello"),
		ExpectedFrom:  []domain.DocumentStatus{domain.StatusExtractionInProgress, domain.StatusPendingExtraction},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTextExtracted, doc.Status)
	assert.Equal(t, "hello", doc.Text())

	// A nil ExtractedText keeps the stored text; ErrorMessage is written as-is.
	at := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	doc, err = docs.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:   "doc-1",
		Status:       domain.StatusAnalysisCompleteWithErrors,
		ErrorMessage: domain.StringPtr("1 out of 2 products had analysis/storage issues."),
		AnalyzedAt:   &at,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Text())
	require.NotNil(t, doc.ErrorMessage)
	require.NotNil(t, doc.AnalyzedAt)
	assert.True(t, doc.AnalyzedAt.Equal(at))

	doc, err = docs.UpdateStatus(ctx, domain.StatusUpdate{DocumentID: "doc-1", Status: domain.StatusPendingFullAnalysis})
	require.NoError(t, err)
	assert.Nil(t, doc.ErrorMessage)
}

func TestDocumentStore_UpdateStatus_Conditional(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, time.Now())

	_, err := docs.UpdateStatus(ctx, domain.StatusUpdate{
		DocumentID:   "doc-1",
		Status:       domain.StatusExtractionInProgress,
		ExpectedFrom: []domain.DocumentStatus{domain.StatusTextExtracted},
	})
	assert.ErrorIs(t, err, domain.ErrStaleStatus)

	doc, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingExtraction, doc.Status)

	_, err = docs.UpdateStatus(ctx, domain.StatusUpdate{DocumentID: "missing", Status: domain.StatusTextExtracted})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	createTestDocument(t, store, "old", "a@example.com", domain.ContextSales, base)
	createTestDocument(t, store, "new", "a@example.com", domain.ContextSales, base.Add(time.Hour))
	createTestDocument(t, store, "support", "a@example.com", domain.ContextSupport, base.Add(2*time.Hour))
	createTestDocument(t, store, "other", "b@example.com", domain.ContextSales, base.Add(3*time.Hour))

	_, err := docs.UpdateStatus(ctx, domain.StatusUpdate{DocumentID: "old", Status: domain.StatusAnalysisCompleteAll})
	require.NoError(t, err)

	all, err := docs.ListDocuments(ctx, domain.DocumentFilter{Owner: "a@example.com", Context: domain.ContextSales})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[1].ID)

	searchable, err := docs.ListDocuments(ctx, domain.DocumentFilter{
		Owner:    "a@example.com",
		Statuses: domain.SearchableStatuses(),
	})
	require.NoError(t, err)
	require.Len(t, searchable, 1)
	assert.Equal(t, "old", searchable[0].ID)

	limited, err := docs.ListDocuments(ctx, domain.DocumentFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "other", limited[0].ID)

	none, err := docs.ListDocuments(ctx, domain.DocumentFilter{Owner: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDocumentStore_DeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSupport, time.Now())

	require.NoError(t, store.ChunkStore().SaveChunk(ctx, &domain.DocumentChunk{
		ID: "c1", DocumentID: "doc-1", Text: "battery", Embedding: []float32{1, 0},
	}))

	require.NoError(t, store.DocumentStore().DeleteDocument(ctx, "doc-1"))
	n, err := store.ChunkStore().CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, store.DocumentStore().DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func typ(s string) *string { return &s }

func saveEntity(t *testing.T, store *Store, id, docID, productType string, embedding []float32) {
	t.Helper()
	err := store.EntityStore().SaveEntity(context.Background(), &domain.ExtractedEntity{
		ID:           id,
		DocumentID:   docID,
		ProposedName: id,
		Analysis: domain.EntityAnalysis{
			Name:     id,
			Type:     typ(productType),
			Features: []string{"fast"},
			Summary:  typ("A " + productType + " called " + id),
		},
		Embedding: embedding,
		Status:    domain.EntityAnalyzed,
	})
	require.NoError(t, err)
}

func TestEntityStore_SaveAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, time.Now())

	saveEntity(t, store, "Alpha", "doc-1", "Smartphone", []float32{1, 0})
	require.NoError(t, store.EntityStore().SaveEntity(ctx, &domain.ExtractedEntity{
		ID: "Beta", DocumentID: "doc-1", ProposedName: "Beta",
		Status: domain.EntityFailed, ErrorMessage: domain.StringPtr("analysis failed"),
	}))

	entities, err := store.EntityStore().ListEntities(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Alpha", entities[0].ID)
	assert.Equal(t, []float32{1, 0}, entities[0].Embedding)
	assert.Equal(t, []string{"fast"}, entities[0].Analysis.Features)
	assert.Equal(t, domain.EntityFailed, entities[1].Status)
	assert.Nil(t, entities[1].Embedding)
	require.NotNil(t, entities[1].ErrorMessage)

	require.NoError(t, store.EntityStore().DeleteEntities(ctx, "doc-1"))
	entities, err = store.EntityStore().ListEntities(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestEntityStore_MatchEntities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, time.Now())
	createTestDocument(t, store, "doc-2", "a@example.com", domain.ContextSales, time.Now())

	saveEntity(t, store, "first", "doc-1", "Smartphone", []float32{1, 1})
	saveEntity(t, store, "exact", "doc-1", "Laptop", []float32{1, 0})
	saveEntity(t, store, "tied", "doc-1", "Smartphone", []float32{1, 1})
	saveEntity(t, store, "orthogonal", "doc-1", "Smartphone", []float32{0, 1})
	saveEntity(t, store, "elsewhere", "doc-2", "Smartphone", []float32{1, 0})

	matches, err := store.EntityStore().MatchEntities(ctx, domain.VectorQuery{
		Vector: []float32{1, 0}, Threshold: 0.5, Limit: 10, DocumentID: "doc-1",
	})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Entity.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	// Equal scores keep insertion order.
	assert.Equal(t, "first", matches[1].Entity.ID)
	assert.Equal(t, "tied", matches[2].Entity.ID)

	filtered, err := store.EntityStore().MatchEntities(ctx, domain.VectorQuery{
		Vector: []float32{1, 0}, Threshold: 0.5, Limit: 1, TypeFilter: "smartphone",
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "elsewhere", filtered[0].Entity.ID)
}

func TestEntityStore_FilterEntities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSales, time.Now())

	saveEntity(t, store, "Pixel", "doc-1", "Smartphone", nil)
	saveEntity(t, store, "ThinkPad", "doc-1", "Laptop", nil)

	got, err := store.EntityStore().FilterEntities(ctx, domain.LexicalQuery{
		DocumentID: "doc-1", Keywords: []string{"thinkpad", "pixel"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pixel", got[0].ID)

	got, err = store.EntityStore().FilterEntities(ctx, domain.LexicalQuery{
		DocumentID: "doc-1", Keywords: []string{"thinkpad", "pixel"}, Category: "laptop",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ThinkPad", got[0].ID)
}

func TestChunkStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	chunks := store.ChunkStore()
	createTestDocument(t, store, "doc-1", "a@example.com", domain.ContextSupport, time.Now())

	for i, vec := range [][]float32{{1, 0}, {0.6, 0.8}, {0, 1}} {
		require.NoError(t, chunks.SaveChunk(ctx, &domain.DocumentChunk{
			ID: string(rune('a' + i)), DocumentID: "doc-1", Position: i, Text: "chunk", Embedding: vec,
		}))
	}

	n, err := chunks.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	matches, err := chunks.MatchChunks(ctx, domain.VectorQuery{Vector: []float32{1, 0}, Threshold: 0.5, Limit: 3})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Chunk.ID)
	assert.Equal(t, "b", matches[1].Chunk.ID)
	assert.InDelta(t, 0.6, matches[1].Similarity, 1e-6)

	require.NoError(t, chunks.DeleteChunks(ctx, "doc-1"))
	n, err = chunks.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, chunks.SaveChunk(ctx, &domain.DocumentChunk{ID: "x"}), domain.ErrInvalidInput)
}

func TestFloat32Roundtrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
