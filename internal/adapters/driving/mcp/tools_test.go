package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

func TestServer_handleSearchDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("catalog search maps results", func(t *testing.T) {
		search := &mockSearchService{resp: &domain.SearchResponse{
			Results: []domain.SearchResult{{
				ID:          "ent-1",
				DocumentID:  "doc-1",
				Title:       "Widget Pro",
				Category:    "Smartphone",
				Description: "A fast phone",
				Features:    []string{"5G"},
				Price:       domain.PriceInfo{Amount: 19999, Currency: "INR"},
				Score:       0.82,
			}},
			Fallback: true,
		}}
		ports := testPorts()
		ports.Search = search
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearchDocument(ctx, nil, SearchDocumentInput{
			Query: "phones", DocumentID: "doc-1", Count: 3,
		})

		require.NoError(t, err)
		require.NotNil(t, search.lastCatalog)
		assert.Nil(t, search.lastStrict)
		assert.Equal(t, domain.SearchRequest{Query: "phones", DocumentID: "doc-1", MatchCount: 3}, *search.lastCatalog)
		assert.Equal(t, 1, output.Count)
		assert.True(t, output.Fallback)
		assert.Equal(t, "Widget Pro", output.Results[0].Title)
		assert.Equal(t, "A fast phone", output.Results[0].Summary)
		assert.InDelta(t, 19999, output.Results[0].Price, 1e-9)
		assert.InDelta(t, 0.82, output.Results[0].Score, 1e-9)
	})

	t.Run("strict search uses document search", func(t *testing.T) {
		search := &mockSearchService{}
		ports := testPorts()
		ports.Search = search
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearchDocument(ctx, nil, SearchDocumentInput{
			Query: "battery", DocumentID: "doc-1", Strict: true, Threshold: 0.6,
		})

		require.NoError(t, err)
		require.NotNil(t, search.lastStrict)
		assert.InDelta(t, 0.6, search.lastStrict.Threshold, 1e-9)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("retrieval error is reported in output", func(t *testing.T) {
		ports := testPorts()
		ports.Search = &mockSearchService{resp: &domain.SearchResponse{Error: "embedding unavailable"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleSearchDocument(ctx, nil, SearchDocumentInput{Query: "x", DocumentID: "d"})
		require.NoError(t, err)
		assert.Equal(t, "embedding unavailable", output.Error)
	})

	t.Run("invalid request returns error", func(t *testing.T) {
		ports := testPorts()
		ports.Search = &mockSearchService{err: domain.ErrInvalidInput}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleSearchDocument(ctx, nil, SearchDocumentInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSupportChat(t *testing.T) {
	chat := &mockChatService{reply: &domain.ChatReply{Answer: "Hold the power button.", UsedRetrieval: true}}
	ports := testPorts()
	ports.Chat = chat
	server, err := NewServer(ports)
	require.NoError(t, err)

	history := []domain.ChatTurn{{Role: domain.RoleUser, Text: "hi"}}
	_, reply, err := server.handleSupportChat(context.Background(), nil, SupportChatInput{
		Message: "how do I reset?", History: history,
	})

	require.NoError(t, err)
	assert.Equal(t, "Hold the power button.", reply.Answer)
	assert.True(t, reply.UsedRetrieval)
	assert.Equal(t, "how do I reset?", chat.lastMessage)
	assert.Equal(t, history, chat.lastHistory)

	chat.err = errors.New("message is required")
	_, _, err = server.handleSupportChat(context.Background(), nil, SupportChatInput{})
	assert.Error(t, err)
}

func TestServer_handleListDocuments(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	docs := &mockDocumentService{
		analyzed: []domain.UploadedDocument{{
			ID: "doc-1", Name: "catalog.docx", Context: domain.ContextSales,
			Status: domain.StatusAnalysisCompleteAll, CreatedAt: created,
		}},
		support: []domain.UploadedDocument{{ID: "doc-2", Context: domain.ContextSupport}},
	}
	ports := testPorts()
	ports.Document = docs
	server, err := NewServer(ports)
	require.NoError(t, err)
	ctx := context.Background()

	_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, "rep@example.com", docs.lastOwner)
	assert.Equal(t, DocumentOutput{
		ID:        "doc-1",
		Name:      "catalog.docx",
		Context:   "sales_ai",
		Status:    string(domain.StatusAnalysisCompleteAll),
		URI:       "ssai://documents/doc-1",
		CreatedAt: "2026-03-01T09:30:00Z",
	}, output.Documents[0])

	_, output, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{Context: "support_ai"})
	require.NoError(t, err)
	assert.Equal(t, "doc-2", output.Documents[0].ID)

	_, _, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{Context: "other"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_handleCompareProducts(t *testing.T) {
	ctx := context.Background()
	products := []ProductOutput{
		{ID: "ent-1", Title: "Alpha X1", Summary: "Flagship", Price: 30000, Currency: "INR"},
		{ID: "ent-2", Title: "Beta Y2", Summary: "Budget"},
	}

	t.Run("questions without answers", func(t *testing.T) {
		search := &mockSearchService{questions: []domain.ComparisonQuestion{
			{ID: "q1", Text: "Budget?", Options: []string{"Low", "High"}},
		}}
		ports := testPorts()
		ports.Search = search
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleCompareProducts(ctx, nil, CompareProductsInput{Products: products})

		require.NoError(t, err)
		require.Len(t, output.Questions, 1)
		assert.Nil(t, output.Recommendation)
		require.NotNil(t, search.lastCompare)
		require.Len(t, search.lastCompare.Products, 2)
		assert.Equal(t, "Flagship", search.lastCompare.Products[0].Description)
		assert.InDelta(t, 30000, search.lastCompare.Products[0].Price.Amount, 1e-9)
	})

	t.Run("recommendation with answers", func(t *testing.T) {
		search := &mockSearchService{recommended: &domain.Recommendation{RecommendedProductID: "ent-2", Explanation: "Cheaper."}}
		ports := testPorts()
		ports.Search = search
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleCompareProducts(ctx, nil, CompareProductsInput{
			Products: products, Answers: map[string]string{"q1": "Low"},
		})

		require.NoError(t, err)
		assert.Empty(t, output.Questions)
		require.NotNil(t, output.Recommendation)
		assert.Equal(t, "ent-2", output.Recommendation.RecommendedProductID)
		assert.Equal(t, map[string]string{"q1": "Low"}, search.lastCompare.Answers)
	})

	t.Run("errors are returned", func(t *testing.T) {
		ports := testPorts()
		ports.Search = &mockSearchService{err: domain.ErrMalformedModelOutput}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleCompareProducts(ctx, nil, CompareProductsInput{Products: products})
		assert.ErrorIs(t, err, domain.ErrMalformedModelOutput)

		_, _, err = server.handleCompareProducts(ctx, nil, CompareProductsInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
