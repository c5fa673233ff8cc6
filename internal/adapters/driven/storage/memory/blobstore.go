package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore.
type BlobStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{buckets: make(map[string]map[string][]byte)}
}

// Put stores a copy of content.
func (s *BlobStore) Put(_ context.Context, bucket, path string, content []byte, _ string) (string, error) {
	if bucket == "" || path == "" {
		return "", domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		s.buckets[bucket] = b
	}
	b[path] = bytes.Clone(content)
	return path, nil
}

// Get returns a copy of the stored content.
func (s *BlobStore) Get(_ context.Context, bucket, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.buckets[bucket][path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(content), nil
}

// Delete removes the listed paths.
func (s *BlobStore) Delete(_ context.Context, bucket string, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.buckets[bucket], p)
	}
	return nil
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}
