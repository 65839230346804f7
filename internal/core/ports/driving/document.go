package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DocumentService exposes the records of ingested documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Pages returns the stored text units of a document in order.
	Pages(ctx context.Context, documentID string) ([]domain.Page, error)

	// Content returns the page contents of a document joined by blank lines.
	Content(ctx context.Context, documentID string) (string, error)

	// Delete removes the document from the store and its units from search.
	Delete(ctx context.Context, documentID string) error
}
