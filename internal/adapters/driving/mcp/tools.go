package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// SearchDocumentInput is the input schema for the search_document tool.
type SearchDocumentInput struct {
	Query      string  `json:"query" jsonschema:"what to look for, e.g. 'phones under 20k with good battery'"`
	DocumentID string  `json:"document_id,omitempty" jsonschema:"analysed catalog to search; omit for generated suggestions"`
	Count      int     `json:"count,omitempty" jsonschema:"maximum number of products to return (default 6)"`
	Strict     bool    `json:"strict,omitempty" jsonschema:"vector similarity only, without query parsing or keyword fallback"`
	Threshold  float64 `json:"threshold,omitempty" jsonschema:"minimum similarity for strict searches (default 0.5)"`
}

// SearchDocumentOutput is the output schema for the search_document tool.
type SearchDocumentOutput struct {
	Results  []ProductOutput `json:"results"`
	Count    int             `json:"count"`
	Fallback bool            `json:"fallback,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ProductOutput represents a single product result.
type ProductOutput struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"document_id,omitempty"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Summary    string   `json:"summary"`
	Features   []string `json:"features"`
	Price      float64  `json:"price,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Score      float64  `json:"score"`
	Generated  bool     `json:"generated,omitempty"`
}

// CompareProductsInput is the input schema for the compare_products tool.
type CompareProductsInput struct {
	Products []ProductOutput   `json:"products" jsonschema:"products to compare, as returned by search_document"`
	Answers  map[string]string `json:"answers,omitempty" jsonschema:"chosen option per question id; omit to get the questions"`
}

// CompareProductsOutput carries either questions or a recommendation.
type CompareProductsOutput struct {
	Questions      []domain.ComparisonQuestion `json:"questions,omitempty"`
	Recommendation *domain.Recommendation      `json:"recommendation,omitempty"`
}

// SupportChatInput is the input schema for the support_chat tool.
type SupportChatInput struct {
	Message string            `json:"message" jsonschema:"the customer's question or remark"`
	History []domain.ChatTurn `json:"history,omitempty" jsonschema:"earlier turns, oldest first; role is user or model"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Context string `json:"context,omitempty" jsonschema:"sales_ai (searchable catalogs, default) or support_ai"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Context   string `json:"context"`
	Status    string `json:"status"`
	URI       string `json:"uri"`
	CreatedAt string `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_document",
		Description: "Search products in an analysed sales catalog",
	}, s.handleSearchDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_products",
		Description: "Generate questions that separate a set of products, or recommend one from the answers",
	}, s.handleCompareProducts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "support_chat",
		Description: "Answer a customer support question from the uploaded support documents",
	}, s.handleSupportChat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents and their processing status",
	}, s.handleListDocuments)
}

func (s *Server) handleSearchDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentInput,
) (*mcp.CallToolResult, SearchDocumentOutput, error) {
	var (
		resp *domain.SearchResponse
		err  error
	)
	if input.Strict {
		resp, err = s.ports.Search.SearchInDocument(ctx, domain.DocumentSearchRequest{
			Query:      input.Query,
			DocumentID: input.DocumentID,
			MatchCount: input.Count,
			Threshold:  input.Threshold,
		})
	} else {
		resp, err = s.ports.Search.SearchCatalog(ctx, domain.SearchRequest{
			Query:      input.Query,
			DocumentID: input.DocumentID,
			MatchCount: input.Count,
		})
	}
	if err != nil {
		return nil, SearchDocumentOutput{}, err
	}

	output := SearchDocumentOutput{
		Results:  make([]ProductOutput, len(resp.Results)),
		Count:    len(resp.Results),
		Fallback: resp.Fallback,
		Error:    resp.Error,
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		output.Results[i] = ProductOutput{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Title:      r.Title,
			Category:   r.Category,
			Summary:    r.Description,
			Features:   r.Features,
			Price:      r.Price.Amount,
			Currency:   r.Price.Currency,
			Score:      r.Score,
			Generated:  r.Generated,
		}
	}
	return nil, output, nil
}

func (s *Server) handleCompareProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareProductsInput,
) (*mcp.CallToolResult, CompareProductsOutput, error) {
	products := make([]domain.SearchResult, len(input.Products))
	for i, p := range input.Products {
		products[i] = domain.SearchResult{
			ID:          p.ID,
			DocumentID:  p.DocumentID,
			Title:       p.Title,
			Category:    p.Category,
			Description: p.Summary,
			Features:    p.Features,
			Price:       domain.PriceInfo{Amount: p.Price, Currency: p.Currency},
		}
	}

	if len(input.Answers) > 0 {
		rec, err := s.ports.Search.Recommend(ctx, domain.CompareRequest{Products: products, Answers: input.Answers})
		if err != nil {
			return nil, CompareProductsOutput{}, fmt.Errorf("recommending product: %w", err)
		}
		return nil, CompareProductsOutput{Recommendation: rec}, nil
	}

	questions, err := s.ports.Search.CompareQuestions(ctx, products)
	if err != nil {
		return nil, CompareProductsOutput{}, fmt.Errorf("comparing products: %w", err)
	}
	return nil, CompareProductsOutput{Questions: questions}, nil
}

func (s *Server) handleSupportChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SupportChatInput,
) (*mcp.CallToolResult, domain.ChatReply, error) {
	reply, err := s.ports.Chat.Chat(ctx, input.Message, input.History)
	if err != nil {
		return nil, domain.ChatReply{}, err
	}
	return nil, *reply, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	var (
		docs []domain.UploadedDocument
		err  error
	)
	switch domain.DocumentContext(input.Context) {
	case "", domain.ContextSales:
		docs, err = s.ports.Document.ListAnalyzed(ctx, s.ports.Owner)
	case domain.ContextSupport:
		docs, err = s.ports.Document.ListSupport(ctx, s.ports.Owner)
	default:
		return nil, ListDocumentsOutput{}, fmt.Errorf("%w: unknown context %q", domain.ErrInvalidInput, input.Context)
	}
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("listing documents: %w", err)
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:        docs[i].ID,
			Name:      docs[i].Name,
			Context:   string(docs[i].Context),
			Status:    string(docs[i].Status),
			URI:       documentURI(docs[i].ID),
			CreatedAt: docs[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return nil, output, nil
}
