package driving

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// UploadRequest describes a file being accepted into the pipeline.
type UploadRequest struct {
	Owner     string
	FileName  string
	MediaType string
	Content   []byte
	Context   domain.DocumentContext
	Source    domain.DocumentSource
}

// UploadService accepts files and hands them to the pipeline.
type UploadService interface {
	// Upload stores the file, records the document and dispatches
	// extraction without waiting for it.
	Upload(ctx context.Context, req UploadRequest) (*domain.UploadedDocument, error)

	// ImportFromDrive fetches a Google Drive file with the caller's access
	// token and uploads it.
	ImportFromDrive(ctx context.Context, req DriveImportRequest) (*domain.UploadedDocument, error)
}

// DriveImportRequest identifies a Drive file to import.
type DriveImportRequest struct {
	Owner       string
	AccessToken string
	FileID      string
	Context     domain.DocumentContext
}

// IngestionService runs pipeline stages.
type IngestionService interface {
	// Submit dispatches the extraction stage for a document.
	Submit(ctx context.Context, documentID string) error

	// RunStage executes one stage synchronously. The stage's entry
	// condition is checked against persisted state; domain.ErrStageNotReady
	// is returned when it does not hold.
	RunStage(ctx context.Context, task domain.StageTask) error

	// Resume re-dispatches the stage a document is waiting for, judged
	// from its persisted status. It reports false when nothing is pending.
	Resume(ctx context.Context, documentID string) (domain.Stage, bool, error)
}
