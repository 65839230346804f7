package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// ChatService answers questions from retrieved context and keeps the chat history.
type ChatService interface {
	// Ask retrieves context for question and generates an answer.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// History returns stored messages in ascending timestamp order.
	History(ctx context.Context, limit int) ([]domain.Message, error)

	// SaveMessage stores a message, stamping it with the current time if unset.
	SaveMessage(ctx context.Context, msg domain.Message) (*domain.Message, error)
}
