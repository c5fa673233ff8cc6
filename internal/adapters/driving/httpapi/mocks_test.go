package httpapi

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

type mockUploadService struct {
	err        error
	requests   []driving.UploadRequest
	lastImport *driving.DriveImportRequest
}

func (m *mockUploadService) Upload(_ context.Context, req driving.UploadRequest) (*domain.UploadedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &domain.UploadedDocument{
		ID:        "doc-" + req.FileName,
		Owner:     req.Owner,
		Name:      req.FileName,
		MediaType: req.MediaType,
		Size:      int64(len(req.Content)),
		Context:   req.Context,
		Source:    req.Source,
		Status:    domain.StatusPendingExtraction,
	}, nil
}

func (m *mockUploadService) ImportFromDrive(_ context.Context, req driving.DriveImportRequest) (*domain.UploadedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastImport = &req
	return &domain.UploadedDocument{
		ID:      "drive-" + req.FileID,
		Owner:   req.Owner,
		Name:    "Imported.txt",
		Context: req.Context,
		Source:  domain.SourceDrive,
		Status:  domain.StatusPendingExtraction,
	}, nil
}

type mockIngestionService struct {
	err      error
	lastTask *domain.StageTask
	ctxErr   error
	deadline bool
}

func (m *mockIngestionService) Submit(context.Context, string) error {
	return m.err
}

func (m *mockIngestionService) RunStage(ctx context.Context, task domain.StageTask) error {
	m.lastTask = &task
	m.ctxErr = ctx.Err()
	_, m.deadline = ctx.Deadline()
	return m.err
}

func (m *mockIngestionService) Resume(context.Context, string) (domain.Stage, bool, error) {
	return "", false, m.err
}

// mockDocumentService owns every document of owner and nothing else.
type mockDocumentService struct {
	owner      string
	docs       []domain.UploadedDocument
	entities   []domain.ExtractedEntity
	err        error
	lastDelete string
}

func (m *mockDocumentService) ListAnalyzed(context.Context, string) ([]domain.UploadedDocument, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) ListSupport(context.Context, string) ([]domain.UploadedDocument, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, owner, id string) (*domain.DocumentDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	if owner != m.owner {
		return nil, domain.ErrForbidden
	}
	for _, d := range m.docs {
		if d.ID == id {
			return &domain.DocumentDetails{Document: d, Entities: m.entities}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(ctx context.Context, owner, id string) error {
	if _, err := m.Get(ctx, owner, id); err != nil {
		return err
	}
	m.lastDelete = id
	return nil
}

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

func (m *mockSearchService) SearchInDocument(_ context.Context, req domain.DocumentSearchRequest) (*domain.SearchResponse, error) {
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
		return &domain.SearchResponse{}
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

type testDeps struct {
	upload    *mockUploadService
	ingestion *mockIngestionService
	documents *mockDocumentService
	search    *mockSearchService
	chat      *mockChatService
}

const testOwner = "rep@example.com"

func newTestDeps() *testDeps {
	return &testDeps{
		upload:    &mockUploadService{},
		ingestion: &mockIngestionService{},
		documents: &mockDocumentService{
			owner: testOwner,
			docs: []domain.UploadedDocument{{
				ID:      "doc-1",
				Owner:   testOwner,
				Name:    "catalog.txt",
				Context: domain.ContextSales,
				Status:  domain.StatusAnalysisCompleteAll,
			}},
		},
		search: &mockSearchService{},
		chat:   &mockChatService{reply: &domain.ChatReply{Answer: "Hello!"}},
	}
}

func (d *testDeps) ports() *Ports {
	return &Ports{
		Upload:    d.upload,
		Ingestion: d.ingestion,
		Documents: d.documents,
		Search:    d.search,
		Chat:      d.chat,
	}
}
