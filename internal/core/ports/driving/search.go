package driving

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// SearchService provides catalog retrieval to external actors.
// Retrieval failures are reported in SearchResponse.Error, not as errors;
// an error return means the request itself was invalid.
type SearchService interface {
	// SearchCatalog runs the sales search: document-scoped vector search with
	// category filtering and lexical fallback, or generative suggestions when
	// no document is given.
	SearchCatalog(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)

	// SearchInDocument runs a strict vector search within one document.
	SearchInDocument(ctx context.Context, req domain.DocumentSearchRequest) (*domain.SearchResponse, error)

	// CompareQuestions generates multiple-choice questions that help pick
	// between products. An empty product list is domain.ErrInvalidInput.
	CompareQuestions(ctx context.Context, products []domain.SearchResult) ([]domain.ComparisonQuestion, error)

	// Recommend picks the product that best fits the answers. The result
	// always names one of the given products.
	Recommend(ctx context.Context, req domain.CompareRequest) (*domain.Recommendation, error)
}
