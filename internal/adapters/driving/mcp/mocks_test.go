package mcp

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// mockSearchService records the last request of each kind.
type mockSearchService struct {
	resp        *domain.SearchResponse
	err         error
	lastCatalog *domain.SearchRequest
	lastStrict  *domain.DocumentSearchRequest
	lastCompare *domain.CompareRequest
	questions   []domain.ComparisonQuestion
	recommended *domain.Recommendation
}

func (m *mockSearchService) SearchCatalog(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastCatalog = &req
	return m.response(), m.err
}

func (m *mockSearchService) SearchInDocument(
	_ context.Context,
	req domain.DocumentSearchRequest,
) (*domain.SearchResponse, error) {
	m.lastStrict = &req
	return m.response(), m.err
}

func (m *mockSearchService) CompareQuestions(_ context.Context, products []domain.SearchResult) ([]domain.ComparisonQuestion, error) {
	m.lastCompare = &domain.CompareRequest{Products: products}
	if len(products) == 0 {
		return nil, domain.ErrInvalidInput
	}
	return m.questions, m.err
}

func (m *mockSearchService) Recommend(_ context.Context, req domain.CompareRequest) (*domain.Recommendation, error) {
	m.lastCompare = &req
	if len(req.Products) == 0 {
		return nil, domain.ErrInvalidInput
	}
	return m.recommended, m.err
}

func (m *mockSearchService) response() *domain.SearchResponse {
	if m.resp == nil {
		return &domain.SearchResponse{Results: []domain.SearchResult{}}
	}
	return m.resp
}

type mockChatService struct {
	reply       *domain.ChatReply
	err         error
	lastMessage string
	lastHistory []domain.ChatTurn
}

func (m *mockChatService) Chat(_ context.Context, message string, history []domain.ChatTurn) (*domain.ChatReply, error) {
	m.lastMessage, m.lastHistory = message, history
	return m.reply, m.err
}

// mockDocumentService serves fixed documents and records the owner asked for.
type mockDocumentService struct {
	analyzed  []domain.UploadedDocument
	support   []domain.UploadedDocument
	details   *domain.DocumentDetails
	err       error
	lastOwner string
}

func (m *mockDocumentService) ListAnalyzed(_ context.Context, owner string) ([]domain.UploadedDocument, error) {
	m.lastOwner = owner
	return m.analyzed, m.err
}

func (m *mockDocumentService) ListSupport(_ context.Context, owner string) ([]domain.UploadedDocument, error) {
	m.lastOwner = owner
	return m.support, m.err
}

func (m *mockDocumentService) Get(_ context.Context, owner, _ string) (*domain.DocumentDetails, error) {
	m.lastOwner = owner
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, owner, _ string) error {
	m.lastOwner = owner
	return m.err
}

func testPorts() *Ports {
	return &Ports{
		Search:   &mockSearchService{},
		Chat:     &mockChatService{reply: &domain.ChatReply{}},
		Document: &mockDocumentService{},
		Owner:    "rep@example.com",
	}
}
