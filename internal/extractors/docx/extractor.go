// Package docx extracts paragraph text from Word OpenXML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// MediaType is the DOCX media type.
const MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{MediaType}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads word/document.xml and joins paragraphs with newlines.
// A missing document part yields empty text.
func (e *Extractor) Extract(_ context.Context, content []byte, _ string) domain.ExtractionOutcome {
	if len(content) == 0 {
		return domain.Extracted("")
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.Failed(fmt.Errorf("open docx archive: %w", err))
	}

	text, err := documentText(reader)
	if err != nil {
		return domain.Failed(err)
	}
	return domain.Extracted(text)
}

func documentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document part: %w", err)
		}

		return parseDocumentXML(content)
	}
	return "", nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
	Tabs  []struct{} `xml:"tab"`
	Break []struct{} `xml:"br"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document xml: %w", err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for range r.Tabs {
				b.WriteString("\t")
			}
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
			for range r.Break {
				b.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
