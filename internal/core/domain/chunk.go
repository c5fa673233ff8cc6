package domain

import "time"

// DocumentChunk is a bounded window of a support document's text.
type DocumentChunk struct {
	// ID is the unique identifier.
	ID string

	// DocumentID is the owning document.
	DocumentID string

	// Position is the zero-based order within the document.
	Position int

	// Text is the window content.
	Text string

	// Embedding is the dense vector for Text.
	Embedding []float32

	// CreatedAt orders chunks for stable tie-breaks.
	CreatedAt time.Time
}
