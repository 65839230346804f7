package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions from retrieved context.
type ChatService struct {
	retrieval driving.RetrievalService
	generator driven.AnswerGenerator
	prompts   driven.PromptStore
	messages  driven.MessageStore
}

// NewChatService creates a chat service.
// The generator and message store are optional (can be nil).
func NewChatService(
	retrieval driving.RetrievalService,
	generator driven.AnswerGenerator,
	prompts driven.PromptStore,
	messages driven.MessageStore,
) *ChatService {
	return &ChatService{
		retrieval: retrieval,
		generator: generator,
		prompts:   prompts,
		messages:  messages,
	}
}

// Ask retrieves context for question and generates an answer from it.
// With no matching context the model answers from general knowledge and
// the answer is marked as not grounded.
func (s *ChatService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}

	rc, err := s.retrieval.Query(ctx, question, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	var prompt string
	grounded := !rc.IsEmpty()
	if grounded {
		tmpl, err := s.prompts.Load(driven.PromptAnswerWithContext)
		if err != nil {
			return nil, fmt.Errorf("load prompt: %w", err)
		}
		prompt = fmt.Sprintf(tmpl, rc.Context, question)
	} else {
		tmpl, err := s.prompts.Load(driven.PromptAnswerWithoutContext)
		if err != nil {
			return nil, fmt.Errorf("load prompt: %w", err)
		}
		prompt = fmt.Sprintf(tmpl, question)
	}
	logger.Debug("Grounded: %t, sources: %d, model: %s", grounded, len(rc.Sources), s.generator.ModelName())

	response, err := s.generator.Generate(ctx, prompt, system)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	answer := &domain.Answer{
		Response: strings.TrimSpace(response),
		Sources:  rc.Sources,
		Grounded: grounded,
	}
	if answer.Sources == nil {
		answer.Sources = []domain.Source{}
	}

	if opts.Remember {
		s.remember(ctx, question, answer.Response)
	}
	return answer, nil
}

// remember stores the exchange. History is best effort.
func (s *ChatService) remember(ctx context.Context, question, response string) {
	if s.messages == nil {
		return
	}
	now := time.Now().UTC()
	for _, msg := range []domain.Message{
		{Content: question, Sender: domain.SenderUser, Timestamp: now},
		{Content: response, Sender: domain.SenderAssistant, Timestamp: now},
	} {
		if _, err := s.messages.SaveMessage(ctx, msg); err != nil {
			logger.Warn("Failed to store %s message: %v", msg.Sender, err)
		}
	}
}

// History returns stored messages in ascending timestamp order.
func (s *ChatService) History(ctx context.Context, limit int) ([]domain.Message, error) {
	if s.messages == nil {
		return []domain.Message{}, nil
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	return s.messages.ListMessages(ctx, limit)
}

// SaveMessage stores a message, stamping it with the current time if unset.
func (s *ChatService) SaveMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	if s.messages == nil {
		return nil, fmt.Errorf("message store not configured")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrInvalidInput)
	}
	if !domain.IsValidSender(msg.Sender) {
		return nil, fmt.Errorf("%w: unknown sender %q", domain.ErrInvalidInput, msg.Sender)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return s.messages.SaveMessage(ctx, msg)
}
