package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Chunking Errors.

	// ErrUnsupportedFormat indicates the file type has no registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed indicates chunking produced no usable text units,
	// or the file could not be read as the declared format.
	ErrExtractionFailed = errors.New("extraction failed")

	// AI Service Errors.

	// ErrModelUnavailable indicates the embedding model could not be reached at startup.
	// Retrieval refuses to serve without it.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrLLMUnavailable indicates the answer generator is not configured or unreachable.
	// Retrieval still works; only answer generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Vector Index Errors.

	// ErrDimensionMismatch indicates a vector length differs from the index dimension.
	// This usually means the embedding model changed without rebuilding the index.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrLengthMismatch indicates an insert supplied different numbers of vectors and units.
	ErrLengthMismatch = errors.New("vector and document counts differ")

	// ErrIndexNotFound indicates no persisted index exists at the given path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt indicates the persisted index files are inconsistent.
	// The index must be rebuilt from the source documents.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrIndexLocked indicates another process holds the index lock.
	ErrIndexLocked = errors.New("index locked by another process")
)
