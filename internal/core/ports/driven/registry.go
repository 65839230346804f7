package driven

import "github.com/custodia-labs/ragcore/internal/core/domain"

// ExtractorRegistry selects the text extractor for a file format.
type ExtractorRegistry interface {
	// Register adds an extractor, replacing any previous one for its format.
	Register(extractor TextExtractor)

	// Extractor returns the extractor for a format.
	Extractor(format domain.DocType) (TextExtractor, bool)

	// Formats returns every registered format in sorted order.
	Formats() []domain.DocType
}
