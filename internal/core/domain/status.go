package domain

import "time"

// DocumentStatus is a document lifecycle state.
type DocumentStatus string

// Upload and extraction states.
const (
	StatusUploaded               DocumentStatus = "uploaded"
	StatusPendingExtraction      DocumentStatus = "pending_extraction"
	StatusUploadToStorageFailed  DocumentStatus = "upload_to_storage_failed"
	StatusExtractionInProgress   DocumentStatus = "extraction_in_progress"
	StatusTextExtracted          DocumentStatus = "text_extracted"
	StatusPDFExtractionSkipped   DocumentStatus = "pdf_extraction_skipped"
	StatusUnsupportedType        DocumentStatus = "unsupported_type"
	StatusExtractionFailed       DocumentStatus = "extraction_failed"
	StatusAnalysisInvocationFail DocumentStatus = "analysis_invocation_failed"
)

// Catalog analysis states.
const (
	StatusPendingFullAnalysis          DocumentStatus = "pending_full_analysis"
	StatusIdentificationInProgress     DocumentStatus = "multi_product_identification_in_progress"
	StatusIndividualAnalysisInProgress DocumentStatus = "individual_product_analysis_in_progress"
	StatusAnalysisCompleteAll          DocumentStatus = "analysis_complete_all_products"
	StatusAnalysisCompleteWithErrors   DocumentStatus = "analysis_complete_with_errors"
	StatusAnalysisNoEntitiesFound      DocumentStatus = "analysis_no_products_found"
	StatusAnalysisFailed               DocumentStatus = "analysis_failed"
	StatusAnalysisSkippedEmptyText     DocumentStatus = "analysis_skipped_empty_text"
)

// Support chunk embedding states.
const (
	StatusEmbeddingInProgress       DocumentStatus = "embedding_in_progress"
	StatusEmbeddingCompleted        DocumentStatus = "embedding_completed"
	StatusEmbeddingPartialSuccess   DocumentStatus = "embedding_partial_success"
	StatusEmbeddingFailed           DocumentStatus = "embedding_failed"
	StatusEmbeddingSkippedEmptyText DocumentStatus = "embedding_skipped_empty_text"
	StatusEmbeddingSkippedNoChunks  DocumentStatus = "embedding_skipped_no_chunks"
)

// IsTerminal returns true if no further automatic transition follows.
func (s DocumentStatus) IsTerminal() bool {
	switch s {
	case StatusPDFExtractionSkipped, StatusUnsupportedType, StatusExtractionFailed,
		StatusUploadToStorageFailed, StatusAnalysisInvocationFail,
		StatusAnalysisCompleteAll, StatusAnalysisCompleteWithErrors, StatusAnalysisNoEntitiesFound,
		StatusAnalysisFailed, StatusAnalysisSkippedEmptyText,
		StatusEmbeddingCompleted, StatusEmbeddingPartialSuccess, StatusEmbeddingFailed,
		StatusEmbeddingSkippedEmptyText, StatusEmbeddingSkippedNoChunks:
		return true
	default:
		return false
	}
}

// IsInProgress returns true while a stage is actively working on the document.
func (s DocumentStatus) IsInProgress() bool {
	switch s {
	case StatusExtractionInProgress, StatusIdentificationInProgress,
		StatusIndividualAnalysisInProgress, StatusEmbeddingInProgress:
		return true
	default:
		return false
	}
}

// IsSearchable returns true if the document can be offered for search.
func (s DocumentStatus) IsSearchable() bool {
	for _, st := range SearchableStatuses() {
		if s == st {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// SearchableStatuses returns the statuses listed as analysed documents.
func SearchableStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusTextExtracted,
		StatusAnalysisCompleteAll,
		StatusAnalysisCompleteWithErrors,
	}
}

// AnalysisTerminalStatuses returns the terminal states of the catalog analysis stage.
func AnalysisTerminalStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusAnalysisCompleteAll,
		StatusAnalysisCompleteWithErrors,
		StatusAnalysisNoEntitiesFound,
		StatusAnalysisFailed,
		StatusAnalysisSkippedEmptyText,
	}
}

// EmbeddingTerminalStatuses returns the terminal states of the support chunk stage.
func EmbeddingTerminalStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusEmbeddingCompleted,
		StatusEmbeddingPartialSuccess,
		StatusEmbeddingFailed,
		StatusEmbeddingSkippedEmptyText,
		StatusEmbeddingSkippedNoChunks,
	}
}

// ResumableStatuses returns the statuses in which a document may be
// waiting on a queued stage that a previous process never ran.
func ResumableStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusUploaded,
		StatusPendingExtraction,
		StatusPendingFullAnalysis,
		StatusTextExtracted,
	}
}

// StatusUpdate is a single-row status transition.
type StatusUpdate struct {
	// DocumentID identifies the row.
	DocumentID string

	// Status is the new state.
	Status DocumentStatus

	// ErrorMessage is written as-is: nil clears the column.
	ErrorMessage *string

	// ExpectedFrom, when non-empty, makes the update conditional on the
	// current status being one of these values. A mismatch yields ErrStaleStatus.
	ExpectedFrom []DocumentStatus

	// ExtractedText, when non-nil, is written in the same update.
	ExtractedText *string

	// AnalyzedAt, when non-nil, is written in the same update.
	AnalyzedAt *time.Time
}

// StatusEvent is published after a status transition is persisted.
type StatusEvent struct {
	DocumentID   string         `json:"documentId"`
	Owner        string         `json:"owner"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	At           time.Time      `json:"at"`
}
