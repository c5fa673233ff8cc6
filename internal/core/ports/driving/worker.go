package driving

import "context"

// Worker consumes queued pipeline tasks in the background.
type Worker interface {
	// Start begins consuming tasks.
	// Blocks until the context is cancelled, Stop is called or the queue closes.
	Start(ctx context.Context) error

	// Stop gracefully stops consuming, waiting for in-flight tasks.
	Stop() error
}
