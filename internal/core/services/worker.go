package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure StageWorker implements the interface.
var _ driving.Worker = (*StageWorker)(nil)

// DefaultWorkers is the number of concurrent stage consumers.
const DefaultWorkers = 2

// StageWorker runs queued stage tasks on a fixed pool of goroutines.
// Task failures are logged, never fatal.
type StageWorker struct {
	queue    driven.TaskQueue
	pipeline driving.IngestionService
	workers  int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewStageWorker creates a worker pool over queue.
func NewStageWorker(queue driven.TaskQueue, pipeline driving.IngestionService, workers int) *StageWorker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &StageWorker{queue: queue, pipeline: pipeline, workers: workers}
}

// Start launches the consumers and blocks until they exit, which happens
// when ctx is cancelled, Stop is called or the queue is closed.
func (w *StageWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
	w.mu.Unlock()

	logger.Debug("Stage worker started with %d consumers", w.workers)

	w.wg.Wait()
	w.markStopped()
	return ctx.Err()
}

// Stop signals the consumers and waits for in-flight tasks.
func (w *StageWorker) Stop() error {
	w.mu.Lock()
	if !w.running || w.stopCh == nil {
		w.mu.Unlock()
		return nil
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *StageWorker) markStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *StageWorker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	tasks := w.queue.Tasks()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.run(ctx, id, task)
		}
	}
}

func (w *StageWorker) run(ctx context.Context, id int, task domain.StageTask) {
	logger.Debug("Worker %d: %s %s", id, task.Stage, task.DocumentID)

	err := w.pipeline.RunStage(ctx, task)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStageNotReady), errors.Is(err, domain.ErrStaleStatus):
		logger.Warn("Worker %d: skipped %s for %s: %v", id, task.Stage, task.DocumentID, err)
	default:
		logger.Error("Worker %d: %s for %s failed: %v", id, task.Stage, task.DocumentID, err)
	}
}
