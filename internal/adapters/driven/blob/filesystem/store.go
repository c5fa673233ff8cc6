// Package filesystem provides a directory-backed implementation of
// driven.BlobStore: <root>/<bucket>/<path>.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store writes each blob to its own file under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: blob root is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// resolve maps bucket and path to a file inside root, rejecting paths that
// would escape it.
func (s *Store) resolve(bucket, path string) (string, error) {
	if bucket == "" || path == "" || strings.ContainsAny(bucket, `/\`) {
		return "", domain.ErrInvalidInput
	}
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	base := filepath.Join(s.root, bucket) + string(filepath.Separator)
	if !strings.HasPrefix(full, base) {
		return "", fmt.Errorf("%w: path %q escapes bucket", domain.ErrInvalidInput, path)
	}
	return full, nil
}

// Put writes content atomically via a temp file and rename.
func (s *Store) Put(_ context.Context, bucket, path string, content []byte, _ string) (string, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("renaming blob: %w", err)
	}
	return path, nil
}

// Get reads the stored file.
func (s *Store) Get(_ context.Context, bucket, path string) ([]byte, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s/%s: %w", bucket, path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return content, nil
}

// Delete removes the listed files. Missing files are ignored.
func (s *Store) Delete(_ context.Context, bucket string, paths ...string) error {
	for _, p := range paths {
		full, err := s.resolve(bucket, p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting blob %s/%s: %w", bucket, p, err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
