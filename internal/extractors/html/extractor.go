// Package html extracts readable text from HTML pages, such as catalog
// pages saved from a browser.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor strips markup, scripts and styles from HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Ahead of the text/* fallback
}

// Extract returns the page title, if any, followed by the visible text.
func (e *Extractor) Extract(_ context.Context, content []byte, _ string) domain.ExtractionOutcome {
	page := string(content)
	body := Text(page)
	if title := Title(page); title != "" && !strings.HasPrefix(body, title) {
		body = title + "\n\n" + body
	}
	return domain.Extracted(body)
}

var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// Title returns the decoded <title> of page, or "".
func Title(page string) string {
	m := titleTag.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// Text removes markup and returns one non-empty line per block of text.
// Table cells end up on their own lines so prices stay next to their rows.
func Text(page string) string {
	for _, re := range []*regexp.Regexp{scriptTag, styleTag, noscriptTag, headTag, svgTag, htmlComments} {
		page = re.ReplaceAllString(page, "")
	}
	page = openBlockElements.ReplaceAllString(page, "\n")
	page = blockElements.ReplaceAllString(page, "\n")
	page = brTags.ReplaceAllString(page, "\n")
	page = hrTags.ReplaceAllString(page, "\n")
	page = allTags.ReplaceAllString(page, " ")
	page = html.UnescapeString(page)
	page = multiSpaces.ReplaceAllString(page, " ")

	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
