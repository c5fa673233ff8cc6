// Package sqlite provides a single-file SQLite implementation of the
// document, entity and chunk stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs every store:
//
//   - DocumentStore: uploaded documents and their lifecycle status
//   - EntityStore: analysed products with their embeddings
//   - ChunkStore: support document chunks with their embeddings
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; applied versions are recorded in schema_migrations.
//
// # Similarity
//
// SQLite has no vector type. Embeddings are stored as little-endian float32
// blobs and ranked in Go with the shared rank package.
//
// # Data Location
//
// By default, the database is stored at ~/.ssai/data/metadata.db
package sqlite
