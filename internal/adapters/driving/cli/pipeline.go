package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// pollInterval is how often --wait re-reads a document.
var pollInterval = 500 * time.Millisecond

// startWorker runs the stage worker until the returned stop is called.
func startWorker(ctx context.Context) (stop func()) {
	if stageWorker == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := stageWorker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("worker: %v", err)
		}
	}()
	return func() {
		if err := stageWorker.Stop(); err != nil {
			logger.Warn("worker stop: %v", err)
		}
		cancel()
		<-done
	}
}

// waitForDocument polls until the document reaches a terminal status.
func waitForDocument(ctx context.Context, owner, id string, timeout time.Duration) (*domain.UploadedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last domain.DocumentStatus
	for {
		details, err := documentService.Get(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		doc := details.Document
		if doc.Status != last {
			logger.Info("Document %s: %s", id, doc.Status)
			last = doc.Status
		}
		if doc.Status.IsTerminal() {
			return &doc, nil
		}

		select {
		case <-ctx.Done():
			return &doc, fmt.Errorf("waiting for %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// resumePending re-dispatches the stage each document was waiting on when
// a previous process stopped.
func resumePending(ctx context.Context) int {
	if documentStore == nil || ingestionService == nil {
		return 0
	}
	docs, err := documentStore.ListDocuments(ctx, domain.DocumentFilter{
		Statuses: domain.ResumableStatuses(),
	})
	if err != nil {
		logger.Warn("resume: list pending documents: %v", err)
		return 0
	}
	resumed := 0
	for i := range docs {
		stage, ok, err := ingestionService.Resume(ctx, docs[i].ID)
		if err != nil {
			logger.Warn("Document %s: resume failed: %v", docs[i].ID, err)
			continue
		}
		if ok {
			logger.Info("Document %s: resuming %s", docs[i].ID, stage)
			resumed++
		}
	}
	return resumed
}
