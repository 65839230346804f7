package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Chunker splits a file into text units with provenance metadata.
type Chunker interface {
	// Chunk reads filePath as fileType and returns its text units.
	// Returns ErrUnsupportedFormat for unknown types and ErrExtractionFailed
	// when no usable text results.
	Chunk(ctx context.Context, filePath, fileType string) ([]domain.TextUnit, error)
}

// Segment is one raw piece of extracted text before grouping.
type Segment struct {
	// Text is the extracted text, untrimmed.
	Text string

	// Locator is the 1-based page number, or 0 for formats without pages.
	Locator int
}

// TextExtractor pulls raw segments out of one file format.
// PDF extractors return one segment per page; Word extractors one per paragraph.
type TextExtractor interface {
	// Format returns the DocType this extractor reads.
	Format() domain.DocType

	// Extract returns the segments of the file in document order.
	Extract(ctx context.Context, filePath string) ([]Segment, error)
}
