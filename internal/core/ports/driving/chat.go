package driving

import (
	"context"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// ChatService answers support questions grounded in support documents.
type ChatService interface {
	// Chat answers message given recent history. Retrieval and generation
	// failures are reported in ChatReply.Error; an error return means the
	// request was invalid.
	Chat(ctx context.Context, message string, history []domain.ChatTurn) (*domain.ChatReply, error)
}
