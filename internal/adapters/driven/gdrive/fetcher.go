package gdrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// DefaultMaxSize bounds a downloaded or exported file.
const DefaultMaxSize = 20 << 20

// exports maps native document types to their export format and extension.
var exports = map[string]struct{ mime, ext string }{
	MimeTypeGoogleDoc:    {ExportMimeText, ".txt"},
	MimeTypeGoogleSheet:  {ExportMimeCSV, ".csv"},
	MimeTypeGoogleSlides: {ExportMimeText, ".txt"},
}

// Config configures a Fetcher.
type Config struct {
	// Endpoint overrides the Drive API base URL. Used by tests.
	Endpoint string

	// MaxSize bounds the file body. Defaults to DefaultMaxSize.
	MaxSize int64
}

// Fetcher downloads Drive files with a per-request access token.
type Fetcher struct {
	endpoint string
	maxSize  int64
}

// Ensure Fetcher implements the interface.
var _ driven.DriveFetcher = (*Fetcher)(nil)

// NewFetcher creates a Drive fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &Fetcher{endpoint: cfg.Endpoint, maxSize: cfg.MaxSize}
}

// Fetch downloads fileID. Native documents are exported to text/plain
// (Docs, Slides) or text/csv (Sheets).
func (f *Fetcher) Fetch(ctx context.Context, accessToken, fileID string) (*driven.RemoteFile, error) {
	if accessToken == "" || fileID == "" {
		return nil, fmt.Errorf("%w: access token and file id are required", domain.ErrInvalidInput)
	}

	svc, err := f.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	meta, err := svc.Files.Get(fileID).Fields("id", "name", "mimeType", "size").
		SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get file metadata", err)
	}
	if meta.MimeType == MimeTypeFolder {
		return nil, fmt.Errorf("%w: %s is a folder", domain.ErrInvalidInput, fileID)
	}
	if meta.Size > f.maxSize {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrInvalidInput, meta.Size, f.maxSize)
	}

	name, mediaType := meta.Name, meta.MimeType
	var resp *http.Response
	if export, ok := exports[meta.MimeType]; ok {
		logger.Debug("gdrive: exporting %s as %s", fileID, export.mime)
		resp, err = svc.Files.Export(fileID, export.mime).Context(ctx).Download()
		if err != nil {
			return nil, wrapError("export file", err)
		}
		name, mediaType = exportName(meta.Name, export.ext), export.mime
	} else {
		resp, err = svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return nil, wrapError("download file", err)
		}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file content: %w", err)
	}
	if int64(len(content)) > f.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, f.maxSize)
	}

	logger.Info("gdrive: fetched %s (%s, %d bytes)", name, mediaType, len(content))
	return &driven.RemoteFile{Name: name, MediaType: mediaType, Content: content}, nil
}

func (f *Fetcher) service(ctx context.Context, accessToken string) (*drive.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

// exportName gives an exported document an extension matching its new type.
func exportName(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}
