package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DocumentStore persists the documents and document_pages records of ingested files.
// Backed by SQLite. The vector index does not depend on it.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SavePages stores the pages of a document.
	SavePages(ctx context.Context, pages []domain.Page) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetPages retrieves all pages of a document ordered by page number.
	GetPages(ctx context.Context, documentID string) ([]domain.Page, error)

	// DeleteDocument removes a document and its pages.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// MessageStore persists the chat history.
type MessageStore interface {
	// SaveMessage stores a message and returns it with its assigned ID.
	SaveMessage(ctx context.Context, msg domain.Message) (*domain.Message, error)

	// ListMessages returns messages in ascending timestamp order.
	// A limit of zero returns every message; otherwise the most recent limit messages.
	ListMessages(ctx context.Context, limit int) ([]domain.Message, error)
}
