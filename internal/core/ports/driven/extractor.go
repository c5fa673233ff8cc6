package driven

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// TextExtractor decodes stored bytes of particular media types into text.
type TextExtractor interface {
	// SupportedMediaTypes returns the media types this extractor handles.
	// An entry ending in "/*" matches a whole top-level type.
	SupportedMediaTypes() []string

	// Priority returns selection priority (higher = preferred).
	Priority() int

	// Extract decodes content. Zero-length content yields an empty outcome.
	Extract(ctx context.Context, content []byte, mediaType string) domain.ExtractionOutcome
}
