package domain

// Stage names a pipeline stage that can be dispatched as a task.
type Stage string

// Pipeline stages.
const (
	StageExtract     Stage = "extract"
	StageAnalyze     Stage = "analyze"
	StageEmbedChunks Stage = "embed_chunks"
)

// IsValid returns true if the stage is recognised.
func (s Stage) IsValid() bool {
	switch s {
	case StageExtract, StageAnalyze, StageEmbedChunks:
		return true
	default:
		return false
	}
}

// FailureStatus is the terminal status forced when the stage fails unexpectedly.
func (s Stage) FailureStatus() DocumentStatus {
	switch s {
	case StageExtract:
		return StatusExtractionFailed
	case StageEmbedChunks:
		return StatusEmbeddingFailed
	default:
		return StatusAnalysisFailed
	}
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// StageTask is one unit of work handed from a stage to the next.
// It carries only identifiers; the consumer re-reads persisted state.
type StageTask struct {
	DocumentID string `json:"documentId"`
	Stage      Stage  `json:"stage"`

	// Force bypasses the entry-status check for manual recovery of a
	// document stuck in an in-progress state. Persisted preconditions such
	// as extracted text being present are still enforced.
	Force bool `json:"force,omitempty"`
}
