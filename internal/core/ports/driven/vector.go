package driven

import "github.com/custodia-labs/ragcore/internal/core/domain"

// VectorIndex is an append-only collection of (vector, text unit) pairs
// searched exactly by squared Euclidean distance.
//
// Implementations are not required to be safe for concurrent use; the
// retrieval service serialises writers and lets readers share a lock.
type VectorIndex interface {
	// Insert appends vectors and their units. Both slices must have the
	// same length and every vector must match the index dimension, which
	// the first insert establishes. A rejected insert leaves the index untouched.
	Insert(vectors [][]float32, units []domain.TextUnit) error

	// Search returns up to k live units ordered by ascending distance,
	// earlier-inserted units first on ties. An empty index yields an
	// empty result, not an error.
	Search(query []float32, k int) ([]domain.SearchResult, error)

	// SearchFiltered is Search restricted to units accepted by keep.
	SearchFiltered(query []float32, k int, keep func(domain.TextUnit) bool) ([]domain.SearchResult, error)

	// Truncate drops every entry at position n or later.
	// Used to roll back an insert whose persist failed.
	Truncate(n int)

	// Delete tombstones every live unit owned by documentID and returns the
	// positions it marked.
	Delete(documentID string) []int

	// Undelete clears the tombstones at positions.
	// Used to roll back a delete whose persist failed.
	Undelete(positions []int)

	// Compact drops tombstoned entries and returns how many were removed.
	Compact() int

	// Len returns the number of stored entries, tombstoned ones included.
	Len() int

	// Dimension returns the vector length, or 0 before the first insert.
	Dimension() int

	// Stats summarises the index.
	Stats() domain.IndexStats

	// Persist writes the index to dir, replacing any previous copy atomically.
	Persist(dir string) error
}

// IndexLoader opens the persisted index or creates a fresh one.
type IndexLoader interface {
	// Restore loads the index persisted at dir.
	// Returns ErrIndexNotFound when nothing was persisted there
	// and ErrIndexCorrupt when the files are inconsistent.
	Restore(dir string) (VectorIndex, error)

	// New returns an empty index.
	New() VectorIndex
}
