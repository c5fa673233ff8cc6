package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentContext_Bucket(t *testing.T) {
	assert.Equal(t, "drivefiles", ContextSales.Bucket())
	assert.Equal(t, "supportchatattachments", ContextSupport.Bucket())
	assert.True(t, ContextSales.IsValid())
	assert.False(t, DocumentContext("other").IsValid())
}

func TestUploadedDocument_ExtractedTextNilVersusEmpty(t *testing.T) {
	doc := UploadedDocument{}
	assert.False(t, doc.HasExtractedText())
	assert.Equal(t, "", doc.Text())

	doc.ExtractedText = StringPtr("")
	assert.True(t, doc.HasExtractedText(), "empty text is a persisted result")
	assert.Equal(t, "", doc.Text())
}

func TestDocumentStatus_Classification(t *testing.T) {
	terminal := []DocumentStatus{
		StatusPDFExtractionSkipped, StatusUnsupportedType, StatusExtractionFailed,
		StatusAnalysisCompleteAll, StatusAnalysisCompleteWithErrors, StatusAnalysisNoEntitiesFound,
		StatusAnalysisFailed, StatusAnalysisInvocationFail, StatusAnalysisSkippedEmptyText,
		StatusEmbeddingCompleted, StatusEmbeddingFailed,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		assert.False(t, s.IsInProgress(), "%s should not be in progress", s)
	}

	inProgress := []DocumentStatus{
		StatusExtractionInProgress, StatusIdentificationInProgress,
		StatusIndividualAnalysisInProgress, StatusEmbeddingInProgress,
	}
	for _, s := range inProgress {
		assert.True(t, s.IsInProgress(), "%s should be in progress", s)
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}

	assert.False(t, StatusPendingExtraction.IsTerminal())
	assert.False(t, StatusTextExtracted.IsTerminal())
}

func TestDocumentStatus_Searchable(t *testing.T) {
	assert.True(t, StatusTextExtracted.IsSearchable())
	assert.True(t, StatusAnalysisCompleteAll.IsSearchable())
	assert.True(t, StatusAnalysisCompleteWithErrors.IsSearchable())
	assert.False(t, StatusAnalysisFailed.IsSearchable())
	assert.Equal(t, "analysis_complete_all_products", string(StatusAnalysisCompleteAll))
}

func TestStage_FailureStatus(t *testing.T) {
	assert.Equal(t, StatusExtractionFailed, StageExtract.FailureStatus())
	assert.Equal(t, StatusAnalysisFailed, StageAnalyze.FailureStatus())
	assert.Equal(t, StatusEmbeddingFailed, StageEmbedChunks.FailureStatus())
	assert.False(t, Stage("index").IsValid())
}

func TestExtracted_EmptyTextIsEmptyVariant(t *testing.T) {
	assert.Equal(t, ExtractionEmpty, Extracted("").Kind)
	assert.Equal(t, ExtractionExtracted, Extracted("x").Kind)
	assert.True(t, Extracted("").HasText())
	assert.False(t, Skipped("pdf").HasText())
	assert.Equal(t, "unsupported", Unsupported("image/png").Kind.String())
}
