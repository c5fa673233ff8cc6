// Package channel provides an in-process TaskQueue backed by a buffered channel.
package channel

import (
	"context"
	"sync"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// DefaultCapacity is the buffer size used when none is given.
const DefaultCapacity = 64

// Ensure Queue implements the interface.
var _ driven.TaskQueue = (*Queue)(nil)

// Queue hands stage tasks from producers to workers. Enqueue never blocks.
type Queue struct {
	mu     sync.RWMutex
	tasks  chan domain.StageTask
	closed bool
}

// New creates a queue with the given buffer capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{tasks: make(chan domain.StageTask, capacity)}
}

// Enqueue adds a task. It returns domain.ErrQueueFull when the buffer is
// full and domain.ErrQueueClosed after Close.
func (q *Queue) Enqueue(ctx context.Context, task domain.StageTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return domain.ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Tasks returns the receive side. It is closed by Close.
func (q *Queue) Tasks() <-chan domain.StageTask {
	return q.tasks
}

// Len returns the number of buffered tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Close stops accepting tasks and closes the receive channel.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.tasks)
	return nil
}
