package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure MessageStore implements the interface.
var _ driven.MessageStore = (*MessageStore)(nil)

// MessageStore is an in-memory implementation of driven.MessageStore.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	nextID   int64
}

// NewMessageStore creates a new in-memory message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{nextID: 1}
}

// SaveMessage stores a message and returns it with its assigned ID.
func (s *MessageStore) SaveMessage(_ context.Context, msg domain.Message) (*domain.Message, error) {
	if !domain.IsValidSender(msg.Sender) {
		return nil, fmt.Errorf("%w: unknown sender %q", domain.ErrInvalidInput, msg.Sender)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Timestamp = msg.Timestamp.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.nextID
	s.nextID++
	s.messages = append(s.messages, msg)
	return &msg, nil
}

// ListMessages returns messages in ascending timestamp order.
// A positive limit keeps only the most recent messages.
func (s *MessageStore) ListMessages(_ context.Context, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	result := append([]domain.Message(nil), s.messages...)
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}
