package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultEntityConcurrency bounds concurrent per-product analysis.
const DefaultEntityConcurrency = 3

// Entry states per stage. A stage only starts from one of these unless forced.
var (
	extractEntryStatuses = []domain.DocumentStatus{
		domain.StatusUploaded,
		domain.StatusPendingExtraction,
		domain.StatusExtractionFailed,
		domain.StatusAnalysisInvocationFail,
	}
	analyzeEntryStatuses = append([]domain.DocumentStatus{
		domain.StatusTextExtracted,
		domain.StatusPendingFullAnalysis,
		domain.StatusAnalysisInvocationFail,
	}, domain.AnalysisTerminalStatuses()...)
	embedEntryStatuses = append([]domain.DocumentStatus{
		domain.StatusTextExtracted,
		domain.StatusAnalysisInvocationFail,
	}, domain.EmbeddingTerminalStatuses()...)
)

// IngestionDeps are the collaborators of the ingestion pipeline.
// Publisher is optional.
type IngestionDeps struct {
	Documents  driven.DocumentStore
	Entities   driven.EntityStore
	Chunks     driven.ChunkStore
	Blobs      driven.BlobStore
	Queue      driven.TaskQueue
	Extraction *ExtractionService
	Identifier *EntityIdentifier
	Analyzer   *EntityAnalyzer
	Embedder   *Embedder
	Chunker    driven.Chunker
	Publisher  driven.StatusPublisher

	// EntityConcurrency bounds per-product work within one document.
	EntityConcurrency int
}

// IngestionService runs the document pipeline one stage at a time. Each
// stage re-reads the document, checks its entry condition against the
// persisted state and hands the next stage to the task queue.
type IngestionService struct {
	deps IngestionDeps
	now  func() time.Time
}

// NewIngestionService creates the pipeline orchestrator.
func NewIngestionService(deps IngestionDeps) *IngestionService {
	if deps.EntityConcurrency <= 0 {
		deps.EntityConcurrency = DefaultEntityConcurrency
	}
	return &IngestionService{deps: deps, now: time.Now}
}

// Submit enqueues the extraction stage for a document.
func (s *IngestionService) Submit(ctx context.Context, documentID string) error {
	doc, err := s.deps.Documents.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	return s.dispatch(ctx, doc, domain.StageExtract)
}

// Resume re-dispatches the stage a document is waiting for, judged from
// its persisted status. It reports the stage enqueued, or false when the
// document is not waiting on any stage.
func (s *IngestionService) Resume(ctx context.Context, documentID string) (domain.Stage, bool, error) {
	doc, err := s.deps.Documents.GetDocument(ctx, documentID)
	if err != nil {
		return "", false, fmt.Errorf("get document: %w", err)
	}
	stage, ok := pendingStage(doc)
	if !ok {
		return "", false, nil
	}
	if s.deps.Queue == nil {
		return "", false, domain.ErrDispatchFailed
	}
	if err := s.deps.Queue.Enqueue(ctx, domain.StageTask{DocumentID: doc.ID, Stage: stage}); err != nil {
		return "", false, fmt.Errorf("resume %s: %w", stage, err)
	}
	logger.Debug("Document %s: resumed %s", doc.ID, stage)
	return stage, true, nil
}

// pendingStage maps a waiting status to the stage that consumes it.
// A failed resume leaves the status untouched so the next start retries.
func pendingStage(doc *domain.UploadedDocument) (domain.Stage, bool) {
	switch doc.Status {
	case domain.StatusUploaded, domain.StatusPendingExtraction:
		return domain.StageExtract, true
	case domain.StatusPendingFullAnalysis, domain.StatusTextExtracted:
		if !doc.HasExtractedText() {
			return "", false
		}
		if doc.Context == domain.ContextSales {
			return domain.StageAnalyze, true
		}
		if doc.Status == domain.StatusTextExtracted {
			return domain.StageEmbedChunks, true
		}
	}
	return "", false
}

// RunStage executes one stage. A stage that runs and records a failure
// status returns nil; errors mean the stage could not start or could not
// persist its outcome, in which case the stage's failure status is forced.
func (s *IngestionService) RunStage(ctx context.Context, task domain.StageTask) (err error) {
	if !task.Stage.IsValid() {
		return fmt.Errorf("unknown stage %q: %w", task.Stage, domain.ErrInvalidInput)
	}

	doc, err := s.deps.Documents.GetDocument(ctx, task.DocumentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if err := checkEntry(doc, task); err != nil {
		return err
	}

	logger.Section(fmt.Sprintf("Stage %s: %s", task.Stage, doc.ID))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", task.Stage, r)
		}
		if err != nil && !errors.Is(err, domain.ErrStaleStatus) {
			s.forceFailure(doc, task.Stage, err)
		}
	}()

	switch task.Stage {
	case domain.StageExtract:
		return s.runExtract(ctx, doc)
	case domain.StageAnalyze:
		return s.runAnalyze(ctx, doc)
	default:
		return s.runEmbedChunks(ctx, doc)
	}
}

// checkEntry validates a stage's precondition against persisted state.
func checkEntry(doc *domain.UploadedDocument, task domain.StageTask) error {
	notReady := func(reason string) error {
		return fmt.Errorf("%s on document %s (%s): %s: %w", task.Stage, doc.ID, doc.Status, reason, domain.ErrStageNotReady)
	}

	switch task.Stage {
	case domain.StageExtract:
		if !task.Force && !slices.Contains(extractEntryStatuses, doc.Status) {
			return notReady("not awaiting extraction")
		}
	case domain.StageAnalyze:
		if doc.Context != domain.ContextSales {
			return notReady("analysis applies to sales documents")
		}
		if !doc.HasExtractedText() {
			return notReady("no extracted text")
		}
		if !task.Force && !slices.Contains(analyzeEntryStatuses, doc.Status) {
			return notReady("not awaiting analysis")
		}
	case domain.StageEmbedChunks:
		if doc.Context != domain.ContextSupport {
			return notReady("chunk embedding applies to support documents")
		}
		if !doc.HasExtractedText() {
			return notReady("no extracted text")
		}
		if !task.Force && !slices.Contains(embedEntryStatuses, doc.Status) {
			return notReady("not awaiting embedding")
		}
	}
	return nil
}

func (s *IngestionService) runExtract(ctx context.Context, doc *domain.UploadedDocument) error {
	doc, err := s.transition(ctx, doc, domain.StatusExtractionInProgress, nil, doc.Status)
	if err != nil {
		return err
	}

	content, err := s.deps.Blobs.Get(ctx, doc.Bucket, doc.Path)
	if err != nil {
		logger.Warn("Document %s: download failed: %v", doc.ID, err)
		_, err = s.transition(ctx, doc, domain.StatusExtractionFailed, domain.StringPtr("Download failed: "+err.Error()), domain.StatusExtractionInProgress)
		return err
	}

	outcome := s.deps.Extraction.Extract(ctx, content, doc.MediaType)
	logger.Debug("Document %s: extraction outcome %s", doc.ID, outcome.Kind)

	switch outcome.Kind {
	case domain.ExtractionSkipped:
		_, err = s.transition(ctx, doc, domain.StatusPDFExtractionSkipped, domain.StringPtr(outcome.Reason), domain.StatusExtractionInProgress)
		return err
	case domain.ExtractionUnsupported:
		msg := fmt.Sprintf("Unsupported file type: %s", outcome.MediaType)
		_, err = s.transition(ctx, doc, domain.StatusUnsupportedType, &msg, domain.StatusExtractionInProgress)
		return err
	case domain.ExtractionFailed:
		msg := fmt.Sprintf("Text extraction failed: %v", outcome.Err)
		_, err = s.transition(ctx, doc, domain.StatusExtractionFailed, &msg, domain.StatusExtractionInProgress)
		return err
	}

	text := outcome.Text
	doc, err = s.apply(ctx, doc, domain.StatusUpdate{
		DocumentID:    doc.ID,
		Status:        domain.StatusTextExtracted,
		ExtractedText: &text,
		ExpectedFrom:  []domain.DocumentStatus{domain.StatusExtractionInProgress},
	})
	if err != nil {
		return err
	}

	if outcome.Kind == domain.ExtractionEmpty {
		skip := domain.StatusAnalysisSkippedEmptyText
		if doc.Context == domain.ContextSupport {
			skip = domain.StatusEmbeddingSkippedEmptyText
		}
		_, err = s.transition(ctx, doc, skip, domain.StringPtr("Extracted text was empty."), domain.StatusTextExtracted)
		return err
	}

	next := domain.StageEmbedChunks
	if doc.Context == domain.ContextSales {
		next = domain.StageAnalyze
		if doc, err = s.transition(ctx, doc, domain.StatusPendingFullAnalysis, nil, domain.StatusTextExtracted); err != nil {
			return err
		}
	}
	return s.dispatch(ctx, doc, next)
}

// runAnalyze claims the document with a conditional status write before
// clearing earlier entities, so a run that loses the race leaves the
// winner's rows alone.
func (s *IngestionService) runAnalyze(ctx context.Context, doc *domain.UploadedDocument) error {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		if _, err := s.transition(ctx, doc, domain.StatusAnalysisSkippedEmptyText, domain.StringPtr("Extracted text was empty."), doc.Status); err != nil {
			return err
		}
		return s.clearEntities(ctx, doc.ID)
	}

	doc, err := s.transition(ctx, doc, domain.StatusIdentificationInProgress, nil, doc.Status)
	if err != nil {
		return err
	}
	if err := s.clearEntities(ctx, doc.ID); err != nil {
		return err
	}

	names, err := s.deps.Identifier.Identify(ctx, text)
	if err != nil {
		logger.Warn("Document %s: product identification failed: %v", doc.ID, err)
		msg := fmt.Sprintf("Product identification failed: %v", err)
		_, err = s.transition(ctx, doc, domain.StatusAnalysisFailed, &msg, domain.StatusIdentificationInProgress)
		return err
	}
	if len(names) == 0 {
		_, err = s.transition(ctx, doc, domain.StatusAnalysisNoEntitiesFound, nil, domain.StatusIdentificationInProgress)
		return err
	}

	logger.Info("Document %s: identified %d products", doc.ID, len(names))
	if doc, err = s.transition(ctx, doc, domain.StatusIndividualAnalysisInProgress, nil, domain.StatusIdentificationInProgress); err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		failed int
		g      errgroup.Group
	)
	g.SetLimit(s.deps.EntityConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if !s.processEntity(ctx, doc.ID, name, text) {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	status := domain.StatusAnalysisCompleteAll
	var msg *string
	if failed > 0 {
		status = domain.StatusAnalysisCompleteWithErrors
		msg = domain.StringPtr(fmt.Sprintf("%d out of %d products had analysis/storage issues.", failed, len(names)))
	}

	at := s.now()
	_, err = s.apply(ctx, doc, domain.StatusUpdate{
		DocumentID:   doc.ID,
		Status:       status,
		ErrorMessage: msg,
		AnalyzedAt:   &at,
		ExpectedFrom: []domain.DocumentStatus{domain.StatusIndividualAnalysisInProgress},
	})
	return err
}

// processEntity analyses, embeds and stores one product. It reports
// whether the product ended up analysed and stored.
func (s *IngestionService) processEntity(ctx context.Context, documentID, name, text string) (ok bool) {
	entity := domain.ExtractedEntity{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		ProposedName: name,
		Analysis:     domain.EntityAnalysis{Name: name, Features: []string{}, Pros: []string{}, Cons: []string{}},
		Status:       domain.EntityPending,
		CreatedAt:    s.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Document %s: product %q panicked: %v", documentID, name, r)
			ok = false
		}
	}()

	if err := s.analyzeEntity(ctx, &entity, text); err != nil {
		logger.Warn("Document %s: product %q failed: %v", documentID, name, err)
		entity.Status = domain.EntityFailed
		entity.ErrorMessage = domain.StringPtr(err.Error())
	} else {
		entity.Status = domain.EntityAnalyzed
	}

	if err := s.deps.Entities.SaveEntity(ctx, &entity); err != nil {
		logger.Error("Document %s: failed to store product %q: %v", documentID, name, err)
		return false
	}
	return entity.Status == domain.EntityAnalyzed
}

func (s *IngestionService) analyzeEntity(ctx context.Context, entity *domain.ExtractedEntity, text string) error {
	analysis, err := s.deps.Analyzer.Analyze(ctx, entity.ProposedName, text)
	if err != nil {
		return err
	}
	entity.Analysis = *analysis

	input := analysis.EmbeddingText()
	if input == "" {
		input = text
	}
	vec, err := s.deps.Embedder.Embed(ctx, input)
	if err != nil {
		return err
	}
	entity.Embedding = vec
	return nil
}

func (s *IngestionService) runEmbedChunks(ctx context.Context, doc *domain.UploadedDocument) error {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		if _, err := s.transition(ctx, doc, domain.StatusEmbeddingSkippedEmptyText, domain.StringPtr("Extracted text was empty."), doc.Status); err != nil {
			return err
		}
		return s.clearChunks(ctx, doc.ID)
	}

	doc, err := s.transition(ctx, doc, domain.StatusEmbeddingInProgress, nil, doc.Status)
	if err != nil {
		return err
	}
	if err := s.clearChunks(ctx, doc.ID); err != nil {
		return err
	}

	chunks := s.deps.Chunker.Chunks(doc.ID, text)
	if len(chunks) == 0 {
		_, err = s.transition(ctx, doc, domain.StatusEmbeddingSkippedNoChunks, nil, domain.StatusEmbeddingInProgress)
		return err
	}
	logger.Info("Document %s: embedding %d chunks", doc.ID, len(chunks))

	stored := 0
	for i := range chunks {
		chunk := &chunks[i]
		vec, err := s.deps.Embedder.Embed(ctx, chunk.Text)
		if err != nil || vec == nil {
			logger.Warn("Document %s: chunk %d/%d not embedded: %v", doc.ID, i+1, len(chunks), err)
			continue
		}
		chunk.Embedding = vec
		if err := s.deps.Chunks.SaveChunk(ctx, chunk); err != nil {
			logger.Warn("Document %s: chunk %d/%d not stored: %v", doc.ID, i+1, len(chunks), err)
			continue
		}
		stored++
	}

	update := domain.StatusUpdate{
		DocumentID:   doc.ID,
		ExpectedFrom: []domain.DocumentStatus{domain.StatusEmbeddingInProgress},
	}
	switch {
	case stored == len(chunks):
		update.Status = domain.StatusEmbeddingCompleted
	case stored == 0:
		update.Status = domain.StatusEmbeddingFailed
		update.ErrorMessage = domain.StringPtr("All chunks failed to embed or store.")
	default:
		update.Status = domain.StatusEmbeddingPartialSuccess
		update.ErrorMessage = domain.StringPtr(fmt.Sprintf("Successfully embedded %d out of %d chunks.", stored, len(chunks)))
	}
	if update.Status != domain.StatusEmbeddingFailed {
		at := s.now()
		update.AnalyzedAt = &at
	}
	_, err = s.apply(ctx, doc, update)
	return err
}

func (s *IngestionService) clearEntities(ctx context.Context, documentID string) error {
	if err := s.deps.Entities.DeleteEntities(ctx, documentID); err != nil {
		return fmt.Errorf("clear previous entities: %w", err)
	}
	return nil
}

func (s *IngestionService) clearChunks(ctx context.Context, documentID string) error {
	if err := s.deps.Chunks.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}
	return nil
}

// dispatch enqueues the next stage. A dispatch failure is recorded as
// analysis_invocation_failed and is not returned, so the calling stage
// completes normally.
func (s *IngestionService) dispatch(ctx context.Context, doc *domain.UploadedDocument, stage domain.Stage) error {
	var err error
	if s.deps.Queue == nil {
		err = domain.ErrDispatchFailed
	} else {
		err = s.deps.Queue.Enqueue(ctx, domain.StageTask{DocumentID: doc.ID, Stage: stage})
	}
	if err == nil {
		logger.Debug("Document %s: dispatched %s", doc.ID, stage)
		return nil
	}

	logger.Warn("Document %s: dispatching %s failed: %v", doc.ID, stage, err)
	msg := fmt.Sprintf("Dispatching %s failed: %v", stage, err)
	_, uerr := s.apply(ctx, doc, domain.StatusUpdate{
		DocumentID:   doc.ID,
		Status:       domain.StatusAnalysisInvocationFail,
		ErrorMessage: &msg,
	})
	return uerr
}

// transition writes a status, conditional on the current status being from.
func (s *IngestionService) transition(
	ctx context.Context, doc *domain.UploadedDocument, status domain.DocumentStatus, msg *string, from domain.DocumentStatus,
) (*domain.UploadedDocument, error) {
	return s.apply(ctx, doc, domain.StatusUpdate{
		DocumentID:   doc.ID,
		Status:       status,
		ErrorMessage: msg,
		ExpectedFrom: []domain.DocumentStatus{from},
	})
}

func (s *IngestionService) apply(ctx context.Context, doc *domain.UploadedDocument, update domain.StatusUpdate) (*domain.UploadedDocument, error) {
	updated, err := s.deps.Documents.UpdateStatus(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("set status %s on %s: %w", update.Status, doc.ID, err)
	}

	if update.Status.IsTerminal() {
		logger.Info("Document %s: %s", doc.ID, update.Status)
	} else {
		logger.Debug("Document %s: %s", doc.ID, update.Status)
	}
	s.publish(updated)
	return updated, nil
}

// forceFailure records the stage's terminal failure status unconditionally.
// It uses a fresh context so a cancelled stage still leaves a terminal state.
func (s *IngestionService) forceFailure(doc *domain.UploadedDocument, stage domain.Stage, cause error) {
	logger.Error("Document %s: stage %s aborted: %v", doc.ID, stage, cause)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := fmt.Sprintf("Unexpected %s error: %v", stage, cause)
	if _, err := s.apply(ctx, doc, domain.StatusUpdate{
		DocumentID:   doc.ID,
		Status:       stage.FailureStatus(),
		ErrorMessage: &msg,
	}); err != nil {
		logger.Error("Document %s: could not record failure: %v", doc.ID, err)
	}
}

func (s *IngestionService) publish(doc *domain.UploadedDocument) {
	if s.deps.Publisher == nil || doc == nil {
		return
	}
	event := domain.StatusEvent{
		DocumentID: doc.ID,
		Owner:      doc.Owner,
		Status:     doc.Status,
		At:         doc.UpdatedAt,
	}
	if doc.ErrorMessage != nil {
		event.ErrorMessage = *doc.ErrorMessage
	}
	s.deps.Publisher.Publish(event)
}
