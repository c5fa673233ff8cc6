package driven

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// TaskQueue carries stage tasks from the stage that finished to the stage
// that consumes them. Enqueue must not wait for the task to run.
type TaskQueue interface {
	// Enqueue hands a task off. It returns domain.ErrQueueFull or
	// domain.ErrQueueClosed when the task cannot be accepted.
	Enqueue(ctx context.Context, task domain.StageTask) error

	// Tasks returns the channel consumers read from. It is closed by Close.
	Tasks() <-chan domain.StageTask

	// Close stops accepting tasks.
	Close() error
}
