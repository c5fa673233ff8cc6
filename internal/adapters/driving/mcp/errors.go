// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search analysed catalogs, ask support questions and
// read documents.
package mcp

import "errors"

// Configuration errors returned by NewServer.
var (
	ErrMissingSearchService   = errors.New("mcp: search service is required")
	ErrMissingChatService     = errors.New("mcp: chat service is required")
	ErrMissingDocumentService = errors.New("mcp: document service is required")
	ErrMissingOwner           = errors.New("mcp: owner is required")
)
