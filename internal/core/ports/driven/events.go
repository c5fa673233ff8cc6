package driven

import "github.com/custodia-labs/sales-support-ai/internal/core/domain"

// StatusPublisher is notified after a document status change is persisted.
// Publish must not block the pipeline.
type StatusPublisher interface {
	Publish(event domain.StatusEvent)
}
