package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	pages     map[string][]domain.Page
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		pages:     make(map[string][]domain.Page),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusProcessed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SavePages stores the pages of a document, replacing pages with the same number.
func (s *DocumentStore) SavePages(_ context.Context, pages []domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, page := range pages {
		if _, ok := s.documents[page.DocumentID]; !ok {
			return fmt.Errorf("saving page %d: %w", page.PageNumber, domain.ErrNotFound)
		}
	}
	for _, page := range pages {
		if page.ID == "" {
			page.ID = uuid.NewString()
		}
		existing := s.pages[page.DocumentID]
		replaced := false
		for i := range existing {
			if existing[i].PageNumber == page.PageNumber {
				existing[i] = page
				replaced = true
			}
		}
		if !replaced {
			existing = append(existing, page)
		}
		sort.Slice(existing, func(i, j int) bool { return existing[i].PageNumber < existing[j].PageNumber })
		s.pages[page.DocumentID] = existing
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetPages retrieves all pages of a document ordered by page number.
func (s *DocumentStore) GetPages(_ context.Context, documentID string) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages := s.pages[documentID]
	return append([]domain.Page(nil), pages...), nil
}

// DeleteDocument removes a document and its pages.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.pages, id)
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
