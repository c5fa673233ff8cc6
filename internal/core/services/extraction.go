package services

import (
	"context"
	"mime"
	"sort"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// PDFMediaType is declined by design rather than extracted.
const PDFMediaType = "application/pdf"

const pdfSkipReason = "PDF text extraction is not supported; upload a text or DOCX export instead."

// ExtractionService selects a TextExtractor by media type.
type ExtractionService struct {
	extractors []driven.TextExtractor
}

// NewExtractionService creates a registry over the given extractors.
func NewExtractionService(extractors ...driven.TextExtractor) *ExtractionService {
	s := &ExtractionService{}
	for _, e := range extractors {
		s.Register(e)
	}
	return s
}

// Register adds an extractor. Higher priority extractors are tried first.
func (s *ExtractionService) Register(e driven.TextExtractor) {
	s.extractors = append(s.extractors, e)
	sort.SliceStable(s.extractors, func(i, j int) bool {
		return s.extractors[i].Priority() > s.extractors[j].Priority()
	})
}

// Supports reports whether some extractor handles mediaType.
func (s *ExtractionService) Supports(mediaType string) bool {
	return s.find(normaliseMediaType(mediaType)) != nil
}

// Extract turns content into an ExtractionOutcome. PDF is always skipped
// and unknown types are unsupported, whatever the content length.
func (s *ExtractionService) Extract(ctx context.Context, content []byte, mediaType string) domain.ExtractionOutcome {
	mt := normaliseMediaType(mediaType)
	if mt == PDFMediaType {
		return domain.Skipped(pdfSkipReason)
	}

	ext := s.find(mt)
	if ext == nil {
		return domain.Unsupported(mediaType)
	}
	if len(content) == 0 {
		return domain.Extracted("")
	}
	return ext.Extract(ctx, content, mt)
}

func (s *ExtractionService) find(mediaType string) driven.TextExtractor {
	if mediaType == "" {
		return nil
	}
	for _, e := range s.extractors {
		for _, supported := range e.SupportedMediaTypes() {
			if matchesMediaType(supported, mediaType) {
				return e
			}
		}
	}
	return nil
}

func matchesMediaType(pattern, mediaType string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mediaType, prefix+"/")
	}
	return pattern == mediaType
}

// normaliseMediaType lower-cases and drops parameters such as charset.
func normaliseMediaType(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
