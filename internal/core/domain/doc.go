// Package domain defines the core business entities for the sales and
// support assistant.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - UploadedDocument: A stored file moving through the ingestion pipeline
//   - ExtractedEntity: One analysed product found within a catalog document
//   - DocumentChunk: A bounded, embedded window of a support document
//   - ExtractionOutcome: The result of turning stored bytes into text
//   - StageTask: A unit of pipeline work handed between stages
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
