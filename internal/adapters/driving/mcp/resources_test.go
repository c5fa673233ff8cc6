package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid document URI", "ssai://documents/doc-456", "doc-456"},
		{"invalid prefix", "file://documents/doc-456", ""},
		{"nested path", "ssai://documents/doc-456/extra", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document json", func(t *testing.T) {
		docs := &mockDocumentService{details: &domain.DocumentDetails{
			Document: domain.UploadedDocument{
				ID:            "doc-1",
				Name:          "catalog.txt",
				MediaType:     "text/plain",
				Context:       domain.ContextSales,
				Status:        domain.StatusAnalysisCompleteWithErrors,
				ErrorMessage:  domain.StringPtr("1 out of 2 products had analysis/storage issues."),
				ExtractedText: domain.StringPtr("Widget Pro ..."),
			},
			Entities: []domain.ExtractedEntity{
				{ID: "ent-1", Status: domain.EntityAnalyzed, Analysis: domain.EntityAnalysis{Name: "Widget Pro"}},
			},
		}}
		ports := testPorts()
		ports.Document = docs
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleDocumentResource(ctx, readRequest("ssai://documents/doc-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Equal(t, "rep@example.com", docs.lastOwner)

		var body documentResource
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &body))
		assert.Equal(t, "doc-1", body.ID)
		assert.Equal(t, "Widget Pro ...", body.ExtractedText)
		assert.Contains(t, body.ErrorMessage, "1 out of 2")
		require.Len(t, body.Products, 1)
		assert.Equal(t, "Widget Pro", body.Products[0].Analysis.Name)
	})

	t.Run("missing and foreign documents are not found", func(t *testing.T) {
		for _, e := range []error{domain.ErrNotFound, domain.ErrForbidden} {
			ports := testPorts()
			ports.Document = &mockDocumentService{err: e}
			server, err := NewServer(ports)
			require.NoError(t, err)

			_, err = server.handleDocumentResource(ctx, readRequest("ssai://documents/doc-1"))
			assert.Error(t, err)
			assert.NotErrorIs(t, err, e)
		}
	})

	t.Run("backend error is wrapped", func(t *testing.T) {
		ports := testPorts()
		ports.Document = &mockDocumentService{err: errors.New("db down")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, readRequest("ssai://documents/doc-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("malformed uri", func(t *testing.T) {
		server, err := NewServer(testPorts())
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, readRequest("ssai://other/doc-1"))
		assert.Error(t, err)
	})
}
