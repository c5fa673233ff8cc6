// Package plaintext extracts text from textual media types.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor decodes textual content. A UTF-16 byte order mark selects
// UTF-16 decoding; otherwise content must be valid UTF-8.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{
		"text/*",
		"application/json",
		"application/xml",
		"application/vnd.google-apps.document",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract decodes content into text.
func (e *Extractor) Extract(_ context.Context, content []byte, _ string) domain.ExtractionOutcome {
	if len(content) == 0 {
		return domain.Extracted("")
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
	if err != nil {
		return domain.Failed(fmt.Errorf("decode text: %w", err))
	}

	// The UTF-8 decoder replaces invalid sequences rather than failing, so
	// validity is checked on the raw bytes when no BOM redirected decoding.
	if !hasUTF16BOM(content) && !utf8.Valid(content) {
		return domain.Failed(fmt.Errorf("decode text: %w", domain.ErrInvalidInput))
	}

	return domain.Extracted(string(decoded))
}

func hasUTF16BOM(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return (b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE)
}
