package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

func newTestServer(t *testing.T, deps *testDeps) *Server {
	t.Helper()
	srv, err := NewServer(deps.ports(), NewHub(), Config{MaxUploadBytes: 1 << 10})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServer_MissingPort(t *testing.T) {
	_, err := NewServer(&Ports{}, nil, Config{})
	assert.ErrorIs(t, err, ErrMissingPort)
}

func TestHealthz_NoOwnerNeeded(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_RequiresOwner(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	req := httptest.NewRequest(http.MethodGet, "/api/sales-ai/list-analyzed-documents", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedType, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrStageNotReady, http.StatusConflict},
		{domain.ErrStaleStatus, http.StatusConflict},
		{domain.ErrMalformedModelOutput, http.StatusBadGateway},
		{domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestUploadSales_Multipart(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("Widget Pro costs $10"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sales-ai/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, deps.upload.requests, 2)
	assert.Equal(t, testOwner, deps.upload.requests[0].Owner)
	assert.Equal(t, domain.ContextSales, deps.upload.requests[0].Context)
	assert.Equal(t, "Widget Pro costs $10", string(deps.upload.requests[1].Content))

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["documents"], 2)
}

func TestUploadSales_TooLarge(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "big.txt")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 2<<10))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sales-ai/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, deps.upload.requests)
}

func TestUploadSales_DriveImport(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/upload", map[string]string{
		"driveFileId": "file-9",
		"accessToken": "tok",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deps.upload.lastImport)
	assert.Equal(t, "file-9", deps.upload.lastImport.FileID)
	assert.Equal(t, "tok", deps.upload.lastImport.AccessToken)
	assert.Equal(t, domain.ContextSales, deps.upload.lastImport.Context)
}

func TestUploadSupport_DataURL(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/support-ai/upload-document", map[string]string{
		"fileName": "faq.txt",
		"mimeType": "text/plain",
		"content":  "data:text/plain;base64,UmVzZXQgdGhlIHJvdXRlci4=",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, deps.upload.requests, 1)
	assert.Equal(t, "Reset the router.", string(deps.upload.requests[0].Content))
	assert.Equal(t, domain.ContextSupport, deps.upload.requests[0].Context)
}

func TestUploadSupport_ServiceError(t *testing.T) {
	deps := newTestDeps()
	deps.upload.err = domain.ErrUnsupportedType
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/support-ai/upload-document", map[string]string{
		"fileName": "x.exe",
		"content":  "MZ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeContent(t *testing.T) {
	data, err := decodeContent("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(data))

	_, err = decodeContent("data:text/plain;base64")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = decodeContent("data:text/plain;base64,***")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCatalog(t *testing.T) {
	deps := newTestDeps()
	deps.search.resp = &domain.SearchResponse{
		Results: []domain.SearchResult{{ID: "e1", Title: "Widget", Score: 0.9}},
	}
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search", map[string]any{
		"query":               "widget",
		"documentId":          "doc-1",
		"requestedMatchCount": 3,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deps.search.lastCatalog)
	assert.Equal(t, 3, deps.search.lastCatalog.MatchCount)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["results"], 1)
}

func TestAnalyzeProducts_Questions(t *testing.T) {
	deps := newTestDeps()
	deps.search.questions = []domain.ComparisonQuestion{{ID: "q1", Text: "Budget?", Options: []string{"Low", "High"}}}
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search/analyze", map[string]any{
		"products": []map[string]any{{"id": "e1", "title": "Widget"}, {"id": "e2", "title": "Gadget"}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, deps.search.lastCompare)
	assert.Len(t, deps.search.lastCompare.Products, 2)
	assert.Nil(t, deps.search.lastCompare.Answers)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	require.Len(t, body["questions"], 1)
	assert.Nil(t, body["recommendation"])
}

func TestAnalyzeProducts_Recommendation(t *testing.T) {
	deps := newTestDeps()
	deps.search.recommended = &domain.Recommendation{RecommendedProductID: "e2", Explanation: "Cheaper."}
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search/analyze", map[string]any{
		"products": []map[string]any{{"id": "e1"}, {"id": "e2"}},
		"answers":  map[string]string{"q1": "Low"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, deps.search.lastCompare)
	assert.Equal(t, map[string]string{"q1": "Low"}, deps.search.lastCompare.Answers)
	body := decodeBody(t, rec)
	recommendation, ok := body["recommendation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "e2", recommendation["recommendedProductId"])
	assert.Equal(t, "Cheaper.", recommendation["explanation"])
}

func TestAnalyzeProducts_Errors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		err  error
		want int
	}{
		{"no products", map[string]any{}, nil, http.StatusBadRequest},
		{"empty products", map[string]any{"products": []any{}, "answers": map[string]string{"q1": "a"}}, nil, http.StatusBadRequest},
		{"malformed model output", map[string]any{"products": []map[string]any{{"id": "e1"}}}, domain.ErrMalformedModelOutput, http.StatusBadGateway},
		{"no model", map[string]any{"products": []map[string]any{{"id": "e1"}}}, domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.search.err = tt.err
			srv := newTestServer(t, deps)

			rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search/analyze", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestSearchCatalog_ForeignDocument(t *testing.T) {
	deps := newTestDeps()
	deps.documents.owner = "someone@else.com"
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search", map[string]any{
		"query":      "widget",
		"documentId": "doc-1",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, deps.search.lastCatalog)
}

func TestSearchCatalog_RetrievalErrorIsNotHTTPError(t *testing.T) {
	deps := newTestDeps()
	deps.search.resp = &domain.SearchResponse{Error: "embedding unavailable"}
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search", map[string]any{"query": "widget"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "embedding unavailable", body["error"])
	assert.Equal(t, []any{}, body["results"])
}

func TestSearchInDocument(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search-in-document", map[string]any{
		"query":          "widget",
		"uploadedFileId": "doc-1",
		"count":          2,
		"threshold":      0.6,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deps.search.lastStrict)
	assert.Equal(t, "doc-1", deps.search.lastStrict.DocumentID)
	assert.Equal(t, 2, deps.search.lastStrict.MatchCount)
	assert.InDelta(t, 0.6, deps.search.lastStrict.Threshold, 1e-9)
}

func TestSearchInDocument_MissingID(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/search-in-document", map[string]any{"query": "widget"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAnalyzed(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	rec := doJSON(t, srv, http.MethodGet, "/api/sales-ai/list-analyzed-documents", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	docs := decodeBody(t, rec)["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].(map[string]any)["id"])
	assert.Equal(t, "catalog.txt", docs[0].(map[string]any)["name"])
}

func TestGetDocument_WithProducts(t *testing.T) {
	deps := newTestDeps()
	deps.documents.entities = []domain.ExtractedEntity{{
		ID:           "e1",
		DocumentID:   "doc-1",
		ProposedName: "Widget",
		Status:       domain.EntityAnalyzed,
		Analysis:     domain.EntityAnalysis{Name: "Widget Pro", Price: domain.StringPtr("$120"), DiscountedPrice: domain.StringPtr("$90")},
	}}
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodGet, "/api/sales-ai/documents/doc-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeBody(t, rec)["products"].([]any)
	require.Len(t, products, 1)
	price := products[0].(map[string]any)["price_info"].(map[string]any)
	assert.Equal(t, "USD", price["currency"])
	assert.Equal(t, true, price["isOnSale"])
}

func TestGetDocument_NotFound(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	rec := doJSON(t, srv, http.MethodGet, "/api/sales-ai/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument_ByBody(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sales-ai/delete-document", map[string]string{"documentId": "doc-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-1", deps.documents.lastDelete)
}

func TestDeleteDocument_MissingID(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	rec := doJSON(t, srv, http.MethodPost, "/api/sales-ai/delete-document", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSupport_ReturnsArray(t *testing.T) {
	deps := newTestDeps()
	deps.documents.docs[0].Context = domain.ContextSupport
	deps.documents.docs[0].Status = domain.StatusEmbeddingCompleted
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodGet, "/api/support-ai/documents", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "catalog.txt", docs[0]["file_name"])
	assert.Equal(t, "embedding_completed", docs[0]["processing_status"])
}

func TestDeleteSupportDocument_Forbidden(t *testing.T) {
	deps := newTestDeps()
	deps.documents.owner = "other@example.com"
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodDelete, "/api/support-ai/documents/doc-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChat_PartsHistory(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/support-ai/chat", map[string]any{
		"message": "How do I reset?",
		"conversationHistory": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": "hi"}}},
			{"role": "model", "text": "Hello!"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "How do I reset?", deps.chat.lastMessage)
	assert.Equal(t, []domain.ChatTurn{
		{Role: domain.RoleUser, Text: "hi"},
		{Role: domain.RoleAssistant, Text: "Hello!"},
	}, deps.chat.lastHistory)
	assert.Equal(t, "Hello!", decodeBody(t, rec)["answer"])
}

func TestChat_InvalidInput(t *testing.T) {
	deps := newTestDeps()
	deps.chat.err = domain.ErrInvalidInput
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/support-ai/chat", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_MalformedBody(t *testing.T) {
	srv := newTestServer(t, newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/api/support-ai/chat", strings.NewReader("{"))
	req.Header.Set(OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStage(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/documents/doc-1/stages/analyze?force=true", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, deps.ingestion.lastTask)
	assert.Equal(t, domain.StageTask{DocumentID: "doc-1", Stage: domain.StageAnalyze, Force: true}, *deps.ingestion.lastTask)
}

func TestRunStage_OutlivesClientDisconnect(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/stages/analyze", nil).WithContext(ctx)
	req.Header.Set(OwnerHeader, testOwner)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, deps.ingestion.lastTask)
	assert.NoError(t, deps.ingestion.ctxErr)
	assert.True(t, deps.ingestion.deadline)
}

func TestRunStage_UnknownStage(t *testing.T) {
	deps := newTestDeps()
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/documents/doc-1/stages/summarize", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, deps.ingestion.lastTask)
}

func TestRunStage_NotReady(t *testing.T) {
	deps := newTestDeps()
	deps.ingestion.err = domain.ErrStageNotReady
	srv := newTestServer(t, deps)

	rec := doJSON(t, srv, http.MethodPost, "/api/documents/doc-1/stages/embed_chunks", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/ws/documents", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
	assert.True(t, originChecker(nil)(req))
}
