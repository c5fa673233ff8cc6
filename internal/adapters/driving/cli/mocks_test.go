package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

const testOwner = "rep@example.com"

type mockUploadService struct {
	requests []driving.UploadRequest
	imports  []driving.DriveImportRequest
	err      error
}

func (m *mockUploadService) Upload(_ context.Context, req driving.UploadRequest) (*domain.UploadedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &domain.UploadedDocument{ID: "doc-new", Name: req.FileName, Status: domain.StatusPendingExtraction}, nil
}

func (m *mockUploadService) ImportFromDrive(_ context.Context, req driving.DriveImportRequest) (*domain.UploadedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.imports = append(m.imports, req)
	return &domain.UploadedDocument{ID: "doc-drive", Name: "Catalog.txt", Status: domain.StatusPendingExtraction}, nil
}

type mockIngestionService struct {
	tasks     []domain.StageTask
	submitted []string
	resumed   []string
	idle      map[string]bool
	err       error
}

func (m *mockIngestionService) Submit(_ context.Context, id string) error {
	m.submitted = append(m.submitted, id)
	return m.err
}

func (m *mockIngestionService) RunStage(_ context.Context, task domain.StageTask) error {
	m.tasks = append(m.tasks, task)
	return m.err
}

func (m *mockIngestionService) Resume(_ context.Context, id string) (domain.Stage, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	if m.idle[id] {
		return "", false, nil
	}
	m.resumed = append(m.resumed, id)
	return domain.StageExtract, true, nil
}

type mockDocumentService struct {
	details  map[string]*domain.DocumentDetails
	analyzed []domain.UploadedDocument
	support  []domain.UploadedDocument
	deleted  []string
}

func (m *mockDocumentService) ListAnalyzed(context.Context, string) ([]domain.UploadedDocument, error) {
	return m.analyzed, nil
}

func (m *mockDocumentService) ListSupport(context.Context, string) ([]domain.UploadedDocument, error) {
	return m.support, nil
}

func (m *mockDocumentService) Get(_ context.Context, owner, id string) (*domain.DocumentDetails, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Document.Owner != owner {
		return nil, domain.ErrForbidden
	}
	return d, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, owner, id string) error {
	if _, err := m.Get(ctx, owner, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSearchService struct {
	resp        *domain.SearchResponse
	lastCatalog *domain.SearchRequest
	lastStrict  *domain.DocumentSearchRequest
}

func (m *mockSearchService) SearchCatalog(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastCatalog = &req
	return m.resp, nil
}

func (m *mockSearchService) SearchInDocument(_ context.Context, req domain.DocumentSearchRequest) (*domain.SearchResponse, error) {
	m.lastStrict = &req
	return m.resp, nil
}

func (m *mockSearchService) CompareQuestions(context.Context, []domain.SearchResult) ([]domain.ComparisonQuestion, error) {
	return nil, nil
}

func (m *mockSearchService) Recommend(context.Context, domain.CompareRequest) (*domain.Recommendation, error) {
	return nil, nil
}

type mockChatService struct {
	histories [][]domain.ChatTurn
	messages  []string
}

func (m *mockChatService) Chat(_ context.Context, message string, history []domain.ChatTurn) (*domain.ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrInvalidInput
	}
	m.messages = append(m.messages, message)
	m.histories = append(m.histories, append([]domain.ChatTurn(nil), history...))
	return &domain.ChatReply{
		Answer:        "Answer to: " + message,
		UsedRetrieval: true,
		Sources:       []domain.ChatSource{{ChunkID: "c1", DocumentID: "doc-support", Similarity: 0.8}},
	}, nil
}

type mockValidator struct {
	err error
}

func (m *mockValidator) ValidateEmbedding(context.Context, *domain.EmbeddingSettings) error {
	return m.err
}

func (m *mockValidator) ValidateLLM(context.Context, *domain.LLMSettings) error {
	return m.err
}

type testServices struct {
	upload    *mockUploadService
	ingestion *mockIngestionService
	documents *mockDocumentService
	search    *mockSearchService
	chat      *mockChatService
	config    *memory.ConfigStore
	store     *memory.DocumentStore
}

// setupTestServices installs mocks for the duration of the test.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	analyzed := domain.UploadedDocument{
		ID:      "doc-1",
		Owner:   testOwner,
		Name:    "catalog.txt",
		Context: domain.ContextSales,
		Status:  domain.StatusAnalysisCompleteAll,
	}
	support := domain.UploadedDocument{
		ID:      "doc-support",
		Owner:   testOwner,
		Name:    "faq.md",
		Context: domain.ContextSupport,
		Status:  domain.StatusEmbeddingCompleted,
	}
	ts := &testServices{
		upload:    &mockUploadService{},
		ingestion: &mockIngestionService{},
		documents: &mockDocumentService{
			details: map[string]*domain.DocumentDetails{
				"doc-1": {
					Document: analyzed,
					Entities: []domain.ExtractedEntity{{
						ID:           "e1",
						ProposedName: "Widget",
						Status:       domain.EntityAnalyzed,
						Analysis: domain.EntityAnalysis{
							Name:     "Widget Pro",
							Price:    domain.StringPtr("$120"),
							Summary:  domain.StringPtr("A sturdy widget."),
							Features: []string{"steel", "waterproof"},
						},
					}},
				},
				"doc-support": {Document: support, Chunks: 4},
				"doc-new":     {Document: domain.UploadedDocument{ID: "doc-new", Owner: testOwner, Status: domain.StatusAnalysisCompleteAll}},
				"doc-drive":   {Document: domain.UploadedDocument{ID: "doc-drive", Owner: testOwner, Status: domain.StatusEmbeddingCompleted}},
			},
			analyzed: []domain.UploadedDocument{analyzed},
			support:  []domain.UploadedDocument{support},
		},
		search: &mockSearchService{resp: &domain.SearchResponse{}},
		chat:   &mockChatService{},
		config: memory.NewConfigStore(),
		store:  memory.NewDocumentStore(),
	}

	applyServices(&Services{
		Settings:  domain.DefaultAppSettings(),
		Config:    ts.config,
		Validator: &mockValidator{},
		Upload:    ts.upload,
		Ingestion: ts.ingestion,
		Documents: ts.documents,
		Search:    ts.search,
		Chat:      ts.chat,
		Store:     ts.store,
	})
	ownerFlag = testOwner

	t.Cleanup(func() {
		applyServices(&Services{})
		aiValidator = nil
	})
	return ts
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	ownerFlag = testOwner

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

var errBoom = errors.New("boom")
