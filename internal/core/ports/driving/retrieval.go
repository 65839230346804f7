package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RetrievalService ingests documents and retrieves grounding context.
type RetrievalService interface {
	// Ingest chunks, embeds, indexes and persists one file.
	// Either every unit of the file becomes searchable and durable, or none does.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// Query returns the context and citations for the k units nearest to text.
	// An empty index yields an empty context, not an error.
	Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.RetrievalContext, error)

	// Search returns the raw ranked hits for text.
	Search(ctx context.Context, text string, opts domain.QueryOptions) ([]domain.SearchResult, error)

	// DeleteDocument removes a document's units from search and its store records.
	DeleteDocument(ctx context.Context, documentID string) error

	// Compact drops tombstoned units from the index and persists it.
	Compact(ctx context.Context) (int, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
