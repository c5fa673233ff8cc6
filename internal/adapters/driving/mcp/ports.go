package mcp

import (
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Search provides catalog retrieval.
	Search driving.SearchService

	// Chat answers support questions.
	Chat driving.ChatService

	// Document lists and reads documents.
	Document driving.DocumentService

	// Owner is the identity every request acts as. MCP clients run locally
	// on behalf of a single user.
	Owner string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Owner == "" {
		return ErrMissingOwner
	}
	return nil
}
