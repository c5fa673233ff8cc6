package domain

import "time"

// DocumentContext discriminates how a document is processed after extraction.
type DocumentContext string

// Available document contexts.
const (
	// ContextSales marks a catalog document: many products are identified,
	// analysed and embedded individually.
	ContextSales DocumentContext = "sales_ai"

	// ContextSupport marks a single-topic document: the text is chunked and
	// each chunk embedded for question answering.
	ContextSupport DocumentContext = "support_ai"
)

// IsValid returns true if the context is recognised.
func (c DocumentContext) IsValid() bool {
	return c == ContextSales || c == ContextSupport
}

// Bucket returns the blob container documents of this context are stored in.
func (c DocumentContext) Bucket() string {
	if c == ContextSupport {
		return BucketSupport
	}
	return BucketSales
}

// String returns the string representation.
func (c DocumentContext) String() string {
	return string(c)
}

// Blob containers.
const (
	BucketSales   = "drivefiles"
	BucketSupport = "supportchatattachments"
)

// DocumentSource records how a document entered the system.
type DocumentSource string

// Available document sources.
const (
	SourceUpload DocumentSource = "upload"
	SourceDrive  DocumentSource = "drive"
	SourceWatch  DocumentSource = "watch"
)

// UploadedDocument is a stored file and its ingestion state.
type UploadedDocument struct {
	// ID is the unique identifier.
	ID string

	// Owner identifies the uploading user (an email address).
	Owner string

	// Name is the declared file name.
	Name string

	// MediaType is the declared media type.
	MediaType string

	// Size is the byte size of the stored file.
	Size int64

	// Bucket is the blob container holding the file.
	Bucket string

	// Path is the key of the file within Bucket.
	Path string

	// Context selects the catalog or support processing path.
	Context DocumentContext

	// Source records how the document was submitted.
	Source DocumentSource

	// Status is the current lifecycle state.
	Status DocumentStatus

	// ExtractedText is nil until extraction succeeds. An empty string is a
	// valid extraction result and is distinct from nil.
	ExtractedText *string

	// ErrorMessage holds the last error encountered, or nil.
	ErrorMessage *string

	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the row last changed.
	UpdatedAt time.Time

	// AnalyzedAt is when the last analysis or embedding pass finished.
	AnalyzedAt *time.Time
}

// HasExtractedText reports whether extraction has persisted a result.
func (d *UploadedDocument) HasExtractedText() bool {
	return d.ExtractedText != nil
}

// Text returns the extracted text, or "" when none is persisted.
func (d *UploadedDocument) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}

// DocumentDetails is a document together with its derived rows.
type DocumentDetails struct {
	Document UploadedDocument
	Entities []ExtractedEntity
	Chunks   int
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	// Owner restricts to one owner. Empty matches all.
	Owner string

	// Context restricts to one processing context. Empty matches all.
	Context DocumentContext

	// Statuses restricts to the listed statuses. Empty matches all.
	Statuses []DocumentStatus

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
