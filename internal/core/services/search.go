package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
	"github.com/custodia-labs/sales-support-ai/internal/modeljson"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// LexicalFallbackScore is the score given to results found without a query
// embedding.
const LexicalFallbackScore = 0.7

var suggestOptions = driven.GenerateOptions{Temperature: 0.7, MaxTokens: 4096}

// SearchService runs catalog retrieval over analysed entities.
type SearchService struct {
	entities driven.EntityStore
	embedder *Embedder
	llm      driven.LLMService
	prompts  driven.PromptStore
	cfg      domain.RetrievalSettings
}

// NewSearchService creates a search service. llm and prompts are only
// needed for unscoped suggestions and may be nil. Zero settings fall back to
// the defaults.
func NewSearchService(
	entities driven.EntityStore,
	embedder *Embedder,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg domain.RetrievalSettings,
) *SearchService {
	return &SearchService{
		entities: entities,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		cfg:      withRetrievalDefaults(cfg),
	}
}

func withRetrievalDefaults(cfg domain.RetrievalSettings) domain.RetrievalSettings {
	def := domain.DefaultAppSettings().Retrieval
	if cfg.SalesThreshold <= 0 {
		cfg.SalesThreshold = def.SalesThreshold
	}
	if cfg.DocumentThreshold <= 0 {
		cfg.DocumentThreshold = def.DocumentThreshold
	}
	if cfg.ChatThreshold <= 0 {
		cfg.ChatThreshold = def.ChatThreshold
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = def.DefaultCount
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = def.MaxCount
	}
	if cfg.ChatChunks <= 0 {
		cfg.ChatChunks = def.ChatChunks
	}
	if cfg.ChatHistory <= 0 {
		cfg.ChatHistory = def.ChatHistory
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = def.ListLimit
	}
	return cfg
}

func (s *SearchService) count(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultCount
	}
	if requested > s.cfg.MaxCount {
		return s.cfg.MaxCount
	}
	return requested
}

// SearchCatalog parses the query and searches one document's entities, or
// asks the model for suggestions when no document is given.
func (s *SearchService) SearchCatalog(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}

	logger.Section("Catalog Search")
	parsed := ParseQuery(query)
	logger.Debug("Parsed query: keywords=%v category=%q", parsed.Keywords, parsed.Category)

	if req.DocumentID == "" {
		resp := s.Suggest(ctx, query, req.MatchCount)
		resp.Parsed = &parsed
		return resp, nil
	}

	limit := s.count(req.MatchCount)
	resp := &domain.SearchResponse{Results: []domain.SearchResult{}, Parsed: &parsed}

	vector, err := s.embedQuery(ctx, query)
	if err != nil || vector == nil {
		logger.Warn("Catalog search: no query embedding (%v), using lexical fallback", err)
		return s.lexical(ctx, resp, req.DocumentID, parsed, limit), nil
	}

	matches, err := s.entities.MatchEntities(ctx, domain.VectorQuery{
		Vector:     vector,
		Threshold:  s.cfg.SalesThreshold,
		Limit:      limit,
		DocumentID: req.DocumentID,
		TypeFilter: parsed.Category,
	})
	if err != nil {
		logger.Error("Catalog search: similarity query failed: %v", err)
		resp.Error = fmt.Sprintf("Search failed: %v", err)
		return resp, nil
	}

	for i := range matches {
		resp.Results = append(resp.Results, domain.ResultFromEntity(&matches[i].Entity, matches[i].Similarity))
	}
	logger.Info("Catalog search: %d results for document %s", len(resp.Results), req.DocumentID)
	return resp, nil
}

func (s *SearchService) lexical(
	ctx context.Context, resp *domain.SearchResponse, documentID string, parsed domain.ParsedQuery, limit int,
) *domain.SearchResponse {
	resp.Fallback = true
	entities, err := s.entities.FilterEntities(ctx, domain.LexicalQuery{
		DocumentID: documentID,
		Keywords:   parsed.Keywords,
		Category:   parsed.Category,
		Limit:      limit,
	})
	if err != nil {
		logger.Error("Catalog search: lexical fallback failed: %v", err)
		resp.Error = fmt.Sprintf("Search failed: %v", err)
		return resp
	}
	for i := range entities {
		resp.Results = append(resp.Results, domain.ResultFromEntity(&entities[i], LexicalFallbackScore))
	}
	return resp
}

// SearchInDocument runs a strict vector search within one document. There
// is no lexical fallback: a missing embedding is reported in Error.
func (s *SearchService) SearchInDocument(
	ctx context.Context, req domain.DocumentSearchRequest,
) (*domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" || strings.TrimSpace(req.DocumentID) == "" {
		return nil, fmt.Errorf("query and document id are required: %w", domain.ErrInvalidInput)
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.cfg.DocumentThreshold
	}
	resp := &domain.SearchResponse{Results: []domain.SearchResult{}}

	vector, err := s.embedQuery(ctx, query)
	if err == nil && vector == nil {
		err = domain.ErrEmbeddingUnavailable
	}
	if err != nil {
		logger.Warn("Document search: query embedding failed: %v", err)
		resp.Error = fmt.Sprintf("Could not embed query: %v", err)
		return resp, nil
	}

	matches, err := s.entities.MatchEntities(ctx, domain.VectorQuery{
		Vector:     vector,
		Threshold:  threshold,
		Limit:      s.count(req.MatchCount),
		DocumentID: req.DocumentID,
	})
	if err != nil {
		logger.Error("Document search: similarity query failed: %v", err)
		resp.Error = fmt.Sprintf("Search failed: %v", err)
		return resp, nil
	}
	for i := range matches {
		resp.Results = append(resp.Results, domain.ResultFromEntity(&matches[i].Entity, matches[i].Similarity))
	}
	return resp, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if !s.embedder.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.embedder.Embed(ctx, query)
}

// suggestion is one generated product as the model returns it.
type suggestion struct {
	ID          modeljson.Text    `json:"id"`
	Title       modeljson.Text    `json:"title"`
	Description modeljson.Text    `json:"description"`
	Category    modeljson.Text    `json:"category"`
	KeyFeatures modeljson.Strings `json:"keyFeatures"`
	Features    []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"features"`
	Pros   modeljson.Strings `json:"pros"`
	Cons   modeljson.Strings `json:"cons"`
	WhyBuy modeljson.Text    `json:"whyBuy"`
	Price  struct {
		Amount         float64 `json:"amount"`
		Currency       string  `json:"currency"`
		Discount       float64 `json:"discount"`
		OriginalPrice  float64 `json:"originalPrice"`
		DiscountAmount float64 `json:"discountAmount"`
		IsOnSale       bool    `json:"isOnSale"`
	} `json:"price"`
}

type suggestions struct {
	Results []suggestion `json:"results"`
}

func (s *suggestions) validate() error {
	if s.Results == nil {
		return errors.New("missing results")
	}
	return nil
}

// Suggest asks the generative model for products matching query when no
// document scope is available. Failures are reported in Error.
func (s *SearchService) Suggest(ctx context.Context, query string, count int) *domain.SearchResponse {
	resp := &domain.SearchResponse{Results: []domain.SearchResult{}}
	count = s.count(count)
	if count > s.cfg.DefaultCount {
		count = s.cfg.DefaultCount
	}

	if s.llm == nil {
		resp.Error = domain.ErrLLMUnavailable.Error()
		return resp
	}

	prompt, err := renderPrompt(s.prompts, driven.PromptSuggest, struct {
		Query string
		Count int
	}{query, count})
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	raw, err := s.llm.Generate(ctx, prompt, suggestOptions)
	if err != nil {
		logger.Error("Suggest: model call failed: %v", err)
		resp.Error = fmt.Sprintf("Suggestion request failed: %v", err)
		return resp
	}

	parsed, err := modeljson.Decode(raw, modeljson.Object, modeljson.Strict, (*suggestions).validate)
	if err != nil {
		logger.Warn("Suggest: %v", err)
		resp.Error = fmt.Sprintf("Could not read suggestions: %v", err)
		return resp
	}

	for i, item := range parsed.Results {
		if i == count {
			break
		}
		resp.Results = append(resp.Results, item.toResult(i))
	}
	logger.Info("Suggest: %d generated results", len(resp.Results))
	return resp
}

func (g *suggestion) toResult(index int) domain.SearchResult {
	features := listOrEmpty(g.KeyFeatures)
	for _, f := range g.Features {
		switch {
		case f.Name != "" && f.Description != "":
			features = append(features, f.Name+": "+f.Description)
		case f.Name != "":
			features = append(features, f.Name)
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(g.Price.Currency))
	if currency == "" {
		currency = domain.CurrencyINR
	}

	return domain.SearchResult{
		ID:          textOr(g.ID, fmt.Sprintf("generated-%d", index+1)),
		Title:       textOr(g.Title, "N/A"),
		Description: textOr(g.Description, "No summary available."),
		Category:    textOr(g.Category, "General"),
		Features:    features,
		Pros:        listOrEmpty(g.Pros),
		Cons:        listOrEmpty(g.Cons),
		WhyBuy:      textOr(g.WhyBuy, "Information not available."),
		Price: domain.PriceInfo{
			Amount:          g.Price.Amount,
			OriginalPrice:   g.Price.OriginalPrice,
			DiscountAmount:  g.Price.DiscountAmount,
			DiscountPercent: int(math.Round(g.Price.Discount)),
			Currency:        currency,
			IsOnSale:        g.Price.IsOnSale,
		},
		Generated: true,
	}
}

func textOr(t modeljson.Text, def string) string {
	if t.Value == nil {
		return def
	}
	return *t.Value
}
