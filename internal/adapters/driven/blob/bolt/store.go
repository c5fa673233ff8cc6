// Package bolt provides a bbolt-backed implementation of driven.BlobStore.
// Each blob bucket is a top-level bolt bucket; the storage path is the key.
package bolt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// DefaultFileName is used when Open is given a directory.
const DefaultFileName = "blobs.db"

// Store keeps uploaded file bytes in a single bolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bolt file at path. A path that is an existing
// directory gets DefaultFileName appended.
func Open(path string) (*Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening blob database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{domain.BucketSales, domain.BucketSupport} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blob buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores content under bucket/path, replacing any previous value.
func (s *Store) Put(_ context.Context, bucket, path string, content []byte, _ string) (string, error) {
	if bucket == "" || path == "" {
		return "", domain.ErrInvalidInput
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(path), content)
	})
	if err != nil {
		return "", fmt.Errorf("putting blob %s/%s: %w", bucket, path, err)
	}
	return path, nil
}

// errMissing stops a View transaction for an absent key.
var errMissing = errors.New("missing")

// Get returns a copy of the stored bytes.
func (s *Store) Get(_ context.Context, bucket, path string) ([]byte, error) {
	var content []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errMissing
		}
		data := b.Get([]byte(path))
		if data == nil {
			return errMissing
		}
		// Values are only valid for the life of the transaction.
		content = bytes.Clone(data)
		return nil
	})
	if errors.Is(err, errMissing) {
		return nil, fmt.Errorf("blob %s/%s: %w", bucket, path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob %s/%s: %w", bucket, path, err)
	}
	return content, nil
}

// Delete removes the listed paths in one transaction.
func (s *Store) Delete(_ context.Context, bucket string, paths ...string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		for _, p := range paths {
			if err := b.Delete([]byte(p)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting blobs from %s: %w", bucket, err)
	}
	return nil
}

// Close closes the bolt file.
func (s *Store) Close() error {
	return s.db.Close()
}
