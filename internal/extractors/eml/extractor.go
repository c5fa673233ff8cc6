// Package eml extracts the headers and text body of RFC 822 email files,
// such as support threads exported from a mail client.
package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/html"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// maxDepth bounds nested multipart parsing.
const maxDepth = 5

// Extractor reads email messages.
type Extractor struct{}

// New creates a new email extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract renders From, To, Date and Subject lines followed by the body.
// Plain text parts are preferred over HTML parts.
func (e *Extractor) Extract(_ context.Context, content []byte, _ string) domain.ExtractionOutcome {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return domain.Failed(fmt.Errorf("parse email: %w", err))
	}

	body, err := readBody(msg.Header.Get("Content-Type"), msg.Body, 0)
	if err != nil {
		return domain.Failed(err)
	}

	var b strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(body)
	return domain.Extracted(strings.TrimSpace(b.String()))
}

func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func readBody(contentType string, r io.Reader, depth int) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth {
			return "", nil
		}
		return readMultipart(r, params["boundary"], depth+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read email body: %w", err)
	}
	switch mediaType {
	case "text/html":
		return html.Text(string(data)), nil
	case "text/plain":
		return strings.TrimSpace(string(data)), nil
	default:
		return "", nil
	}
}

func readMultipart(r io.Reader, boundary string, depth int) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read email part: %w", err)
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}

		ct := part.Header.Get("Content-Type")
		text, err := readBody(ct, part, depth)
		part.Close()
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if strings.HasPrefix(ct, "text/html") {
			rich = append(rich, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}
