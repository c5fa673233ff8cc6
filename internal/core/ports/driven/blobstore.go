package driven

import "context"

// BlobStore holds raw uploaded file bytes keyed by bucket and path.
type BlobStore interface {
	// Put stores content and returns the path it was stored under.
	Put(ctx context.Context, bucket, path string, content []byte, contentType string) (string, error)

	// Get returns the stored bytes.
	// Returns domain.ErrNotFound if nothing is stored at path.
	Get(ctx context.Context, bucket, path string) ([]byte, error)

	// Delete removes the listed paths. Missing paths are not an error.
	Delete(ctx context.Context, bucket string, paths ...string) error

	// Close releases resources.
	Close() error
}
