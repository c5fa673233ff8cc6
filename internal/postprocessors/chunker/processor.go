// Package chunker provides a fixed-size sliding-window text chunker.
package chunker

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits text into overlapping windows of at most chunkSize
// characters. Sizes count Unicode code points, not bytes, so a window never
// splits a multi-byte character.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Step returns how far each window advances.
func (p *Processor) Step() int {
	return p.chunkSize - p.overlap
}

// Split returns the windows of text. Window i starts at i*Step() and the
// last window always ends at the end of text. Windows that are empty after
// trimming whitespace are dropped, so whitespace-only text yields none and
// a whitespace run longer than a window leaves a gap in coverage.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := p.Step()
	chunks := make([]string, 0, n/step+1)

	for start := 0; start < n; start += step {
		end := start + p.chunkSize
		if end > n {
			end = n
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}

		if end == n {
			break
		}
	}

	return chunks
}

// Chunks splits text into DocumentChunks belonging to documentID, numbered
// in order. Embeddings are left for the caller.
func (p *Processor) Chunks(documentID, text string) []domain.DocumentChunk {
	windows := p.Split(text)
	if len(windows) == 0 {
		return nil
	}

	now := time.Now()
	chunks := make([]domain.DocumentChunk, len(windows))
	for i, w := range windows {
		chunks[i] = domain.DocumentChunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Position:   i,
			Text:       w,
			CreatedAt:  now,
		}
	}
	return chunks
}
