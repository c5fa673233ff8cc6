// Package postgres provides a PostgreSQL implementation of the document,
// entity and chunk stores using gorm and pgvector.
//
// Similarity is computed in the database with the pgvector cosine distance
// operator: similarity = 1 - (embedding <=> query). Rows are ordered by
// similarity, then by an insertion sequence so equal scores keep insertion
// order.
//
// For local development Open can start an embedded PostgreSQL server. The
// vector extension must be available to that server.
package postgres
