package services

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// ErrNoDocumentStore is returned when no document store is configured.
var ErrNoDocumentStore = errors.New("document store not configured")

// DocumentService exposes the records of ingested documents.
type DocumentService struct {
	docStore  driven.DocumentStore
	retrieval driving.RetrievalService
}

// NewDocumentService creates a new document service.
// Deletes go through retrieval so the document's units leave the index too.
func NewDocumentService(docStore driven.DocumentStore, retrieval driving.RetrievalService) *DocumentService {
	return &DocumentService{
		docStore:  docStore,
		retrieval: retrieval,
	}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.docStore == nil {
		return nil, ErrNoDocumentStore
	}
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, ErrNoDocumentStore
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Pages returns the stored units of a document ordered by page number.
func (s *DocumentService) Pages(ctx context.Context, documentID string) ([]domain.Page, error) {
	if s.docStore == nil {
		return nil, ErrNoDocumentStore
	}
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docStore.GetPages(ctx, documentID)
}

// Content returns the page contents of a document joined by blank lines.
func (s *DocumentService) Content(ctx context.Context, documentID string) (string, error) {
	pages, err := s.Pages(ctx, documentID)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Content
	}
	return strings.Join(parts, domain.ContextSeparator), nil
}

// Delete removes the document's units from search and its records from the store.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.retrieval != nil {
		return s.retrieval.DeleteDocument(ctx, documentID)
	}
	if s.docStore == nil {
		return ErrNoDocumentStore
	}
	return s.docStore.DeleteDocument(ctx, documentID)
}
