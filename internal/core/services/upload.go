package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.UploadService = (*UploadService)(nil)

// DefaultMaxUploadBytes is the largest accepted file.
const DefaultMaxUploadBytes = 20 << 20

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeFileName replaces every character outside [a-zA-Z0-9._-] with '_'.
func SafeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// StoragePath returns the blob key for an upload: <owner>/<unixMillis>_<safeName>.
func StoragePath(owner, name string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", owner, at.UnixMilli(), SafeFileName(name))
}

// UploadService accepts files, stores them and submits them to the pipeline.
type UploadService struct {
	docs     driven.DocumentStore
	blobs    driven.BlobStore
	pipeline driving.IngestionService
	drive    driven.DriveFetcher
	maxBytes int64
	now      func() time.Time
}

// NewUploadService creates an upload service. drive may be nil, in which
// case ImportFromDrive is unavailable.
func NewUploadService(
	docs driven.DocumentStore,
	blobs driven.BlobStore,
	pipeline driving.IngestionService,
	drive driven.DriveFetcher,
	maxBytes int64,
) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{
		docs:     docs,
		blobs:    blobs,
		pipeline: pipeline,
		drive:    drive,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Upload stores the file and submits extraction. The returned document is
// the acknowledgement; processing continues in the background.
func (s *UploadService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.UploadedDocument, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Source == "" {
		req.Source = domain.SourceUpload
	}
	req.MediaType = resolveMediaType(req.MediaType, req.FileName)

	now := s.now()
	doc := &domain.UploadedDocument{
		ID:        uuid.New().String(),
		Owner:     req.Owner,
		Name:      req.FileName,
		MediaType: req.MediaType,
		Size:      int64(len(req.Content)),
		Bucket:    req.Context.Bucket(),
		Path:      StoragePath(req.Owner, req.FileName, now),
		Context:   req.Context,
		Source:    req.Source,
		Status:    domain.StatusPendingExtraction,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	logger.Info("Document %s: accepted %q (%d bytes) for %s", doc.ID, doc.Name, doc.Size, doc.Context)

	if _, err := s.blobs.Put(ctx, doc.Bucket, doc.Path, req.Content, req.MediaType); err != nil {
		logger.Error("Document %s: storing file failed: %v", doc.ID, err)
		msg := fmt.Sprintf("Upload to storage failed: %v", err)
		if _, uerr := s.docs.UpdateStatus(ctx, domain.StatusUpdate{
			DocumentID:   doc.ID,
			Status:       domain.StatusUploadToStorageFailed,
			ErrorMessage: &msg,
		}); uerr != nil {
			logger.Error("Document %s: could not record storage failure: %v", doc.ID, uerr)
		}
		return nil, fmt.Errorf("store file: %w", err)
	}

	if err := s.pipeline.Submit(ctx, doc.ID); err != nil {
		logger.Warn("Document %s: submitting extraction failed: %v", doc.ID, err)
	}

	stored, err := s.docs.GetDocument(ctx, doc.ID)
	if err != nil {
		return doc, nil
	}
	return stored, nil
}

// ImportFromDrive downloads a Drive file and uploads it.
func (s *UploadService) ImportFromDrive(ctx context.Context, req driving.DriveImportRequest) (*domain.UploadedDocument, error) {
	if s.drive == nil {
		return nil, fmt.Errorf("drive import not configured: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.FileID) == "" || strings.TrimSpace(req.AccessToken) == "" {
		return nil, fmt.Errorf("drive file id and access token are required: %w", domain.ErrInvalidInput)
	}

	file, err := s.drive.Fetch(ctx, req.AccessToken, req.FileID)
	if err != nil {
		return nil, fmt.Errorf("fetch drive file: %w", err)
	}

	return s.Upload(ctx, driving.UploadRequest{
		Owner:     req.Owner,
		FileName:  file.Name,
		MediaType: file.MediaType,
		Content:   file.Content,
		Context:   req.Context,
		Source:    domain.SourceDrive,
	})
}

func (s *UploadService) validate(req driving.UploadRequest) error {
	switch {
	case strings.TrimSpace(req.Owner) == "":
		return fmt.Errorf("owner is required: %w", domain.ErrInvalidInput)
	case strings.TrimSpace(req.FileName) == "":
		return fmt.Errorf("file name is required: %w", domain.ErrInvalidInput)
	case !req.Context.IsValid():
		return fmt.Errorf("unknown context %q: %w", req.Context, domain.ErrInvalidInput)
	case int64(len(req.Content)) > s.maxBytes:
		return fmt.Errorf("file exceeds %d bytes: %w", s.maxBytes, domain.ErrInvalidInput)
	}
	return nil
}
