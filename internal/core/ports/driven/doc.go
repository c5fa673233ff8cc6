// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Uploaded document rows and their status
//   - EntityStore: Analysed products with similarity search
//   - ChunkStore: Support document chunks with similarity search
//   - BlobStore: Raw file bytes keyed by bucket and path
//   - TaskQueue: Hand-off of stage work between pipeline stages
//   - TextExtractor: Media-type specific decoding of stored bytes
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it, catalog search falls back to lexical matching.
//   - LLMService: Without it, identification and chat are unavailable.
//   - StatusPublisher: Without it, status changes are only persisted.
//   - PromptStore: Without it, built-in prompt templates are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
