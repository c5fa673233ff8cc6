package domain

// SearchRequest is a catalog search, optionally scoped to one document.
type SearchRequest struct {
	// Query is the user's free-text query.
	Query string

	// DocumentID scopes the search. Empty routes to generative suggestions.
	DocumentID string

	// MatchCount caps results. Non-positive selects the default.
	MatchCount int
}

// DocumentSearchRequest is a strict vector search within one document.
type DocumentSearchRequest struct {
	Query      string
	DocumentID string
	MatchCount int

	// Threshold is the minimum similarity. Non-positive selects the default.
	Threshold float64
}

// ParsedQuery is the best-effort interpretation of a catalog query.
type ParsedQuery struct {
	Keywords []string `json:"keywords"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	Category string   `json:"category,omitempty"`
}

// VectorQuery parameterises a similarity search against stored vectors.
type VectorQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// Threshold is the minimum cosine similarity kept (inclusive).
	Threshold float64

	// Limit caps the number of matches.
	Limit int

	// DocumentID restricts candidates to one document. Empty searches all.
	DocumentID string

	// TypeFilter restricts entities to those whose type contains this
	// value, case-insensitively. Ignored for chunks.
	TypeFilter string
}

// LexicalQuery parameterises the substring fallback used when no query
// embedding is available.
type LexicalQuery struct {
	DocumentID string

	// Keywords are ORed across name, summary and type.
	Keywords []string

	// Category is ANDed as a substring of the type.
	Category string

	Limit int
}

// EntityMatch is an entity with its similarity to a query.
type EntityMatch struct {
	Entity     ExtractedEntity
	Similarity float64
}

// ChunkMatch is a chunk with its similarity to a query.
type ChunkMatch struct {
	Chunk      DocumentChunk
	Similarity float64
}

// SearchResult is one product presented to a search caller.
type SearchResult struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"documentId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Features    []string  `json:"features"`
	Pros        []string  `json:"pros"`
	Cons        []string  `json:"cons"`
	WhyBuy      string    `json:"whyBuy"`
	Snippet     string    `json:"snippet,omitempty"`
	Price       PriceInfo `json:"price"`

	// Score is the raw similarity, not renormalised.
	Score float64 `json:"confidence"`

	// Generated marks results produced by the generative model rather than
	// retrieved from stored entities.
	Generated bool `json:"generated,omitempty"`
}

// SearchResponse wraps results. Error is set instead of failing the call
// so that consumers can degrade gracefully.
type SearchResponse struct {
	Results  []SearchResult `json:"results"`
	Parsed   *ParsedQuery   `json:"parsed,omitempty"`
	Fallback bool           `json:"fallback,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ResultFromEntity converts a stored entity into a search result.
func ResultFromEntity(e *ExtractedEntity, score float64) SearchResult {
	a := e.Analysis
	return SearchResult{
		ID:          e.ID,
		DocumentID:  e.DocumentID,
		Title:       orDefault(e.DisplayName(), "N/A"),
		Description: orDefault(deref(a.Summary), "No summary available."),
		Category:    orDefault(deref(a.Type), "General"),
		Features:    nonNil(a.Features),
		Pros:        nonNil(a.Pros),
		Cons:        nonNil(a.Cons),
		WhyBuy:      orDefault(deref(a.WhyBuy), "Information not available."),
		Snippet:     deref(a.SourceSnippet),
		Price:       InterpretPrice(deref(a.Price), deref(a.DiscountedPrice)),
		Score:       score,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
