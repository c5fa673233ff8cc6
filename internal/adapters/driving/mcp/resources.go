package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for resources.
	uriScheme = "ssai://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "A document with its status, extracted text and analysed products",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// documentResource is the JSON body of a document resource.
type documentResource struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	MediaType     string            `json:"media_type"`
	Context       string            `json:"context"`
	Status        string            `json:"status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	ExtractedText string            `json:"extracted_text,omitempty"`
	Products      []productResource `json:"products,omitempty"`
	Chunks        int               `json:"chunks,omitempty"`
}

type productResource struct {
	ID       string                `json:"id"`
	Status   string                `json:"status"`
	Analysis domain.EntityAnalysis `json:"analysis"`
}

func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	details, err := s.ports.Document.Get(ctx, s.ports.Owner, docID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	doc := details.Document
	body := documentResource{
		ID:            doc.ID,
		Name:          doc.Name,
		MediaType:     doc.MediaType,
		Context:       string(doc.Context),
		Status:        string(doc.Status),
		ExtractedText: doc.Text(),
		Chunks:        details.Chunks,
	}
	if doc.ErrorMessage != nil {
		body.ErrorMessage = *doc.ErrorMessage
	}
	for i := range details.Entities {
		e := &details.Entities[i]
		body.Products = append(body.Products, productResource{ID: e.ID, Status: string(e.Status), Analysis: e.Analysis})
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func documentURI(id string) string {
	return uriScheme + "documents/" + id
}

// extractDocumentID extracts the document ID from a URI like ssai://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
