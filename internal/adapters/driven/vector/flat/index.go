package flat

import (
	"fmt"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

var log = logger.With("index")

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultLockTimeout bounds how long Persist waits for another process.
const DefaultLockTimeout = 5 * time.Second

// Index is an exact vector index. It is not safe for concurrent use.
type Index struct {
	dim     int
	vectors []float32
	units   []domain.TextUnit
	deleted *roaring.Bitmap

	compression domain.Compression
	lockTimeout time.Duration
	path        string
}

// Option configures an Index.
type Option func(*Index)

// WithCompression sets the codec used by Persist for the vector file.
func WithCompression(c domain.Compression) Option {
	return func(x *Index) {
		if c.IsValid() {
			x.compression = c
		}
	}
}

// WithLockTimeout sets how long Persist waits for the directory lock.
func WithLockTimeout(d time.Duration) Option {
	return func(x *Index) {
		if d > 0 {
			x.lockTimeout = d
		}
	}
}

// New creates an empty index. The dimension is fixed by the first insert.
func New(opts ...Option) *Index {
	x := &Index{
		deleted:     roaring.New(),
		compression: domain.CompressionNone,
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Insert appends vectors and their units.
// Nothing is appended unless every vector passes validation.
func (x *Index) Insert(vectors [][]float32, units []domain.TextUnit) error {
	if len(vectors) != len(units) {
		return fmt.Errorf("%w: %d vectors, %d units", domain.ErrLengthMismatch, len(vectors), len(units))
	}
	if len(vectors) == 0 {
		return nil
	}

	dim := x.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d values, index has %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	x.dim = dim
	x.vectors = slices.Grow(x.vectors, len(vectors)*dim)
	for _, v := range vectors {
		x.vectors = append(x.vectors, v...)
	}
	x.units = append(x.units, units...)

	log.Debug("inserted %d entries (total %d)", len(units), len(x.units))
	return nil
}

// Search returns the k nearest live units.
func (x *Index) Search(query []float32, k int) ([]domain.SearchResult, error) {
	return x.SearchFiltered(query, k, nil)
}

// SearchFiltered returns the k nearest live units accepted by keep.
// A nil keep accepts every unit.
func (x *Index) SearchFiltered(query []float32, k int, keep func(domain.TextUnit) bool) ([]domain.SearchResult, error) {
	if x.liveCount() == 0 {
		return []domain.SearchResult{}, nil
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}

	best := newTopK(min(k, x.liveCount()))
	for pos := range x.units {
		if x.deleted.Contains(uint32(pos)) {
			continue
		}
		if keep != nil && !keep(x.units[pos]) {
			continue
		}
		best.offer(candidate{pos: pos, dist: squaredL2(query, x.row(pos))})
	}

	ranked := best.sorted()
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, c := range ranked {
		results = append(results, domain.SearchResult{
			Unit:     x.units[c.pos],
			Distance: c.dist,
			Position: c.pos,
		})
	}
	return results, nil
}

// Truncate drops every entry at position n or later.
func (x *Index) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(x.units) {
		return
	}
	x.deleted.RemoveRange(uint64(n), uint64(len(x.units)))
	x.units = x.units[:n]
	x.vectors = x.vectors[:n*x.dim]
	if n == 0 {
		x.dim = 0
	}
	log.Debug("truncated to %d entries", n)
}

// Delete tombstones every live unit tagged with documentID.
func (x *Index) Delete(documentID string) []int {
	if documentID == "" {
		return nil
	}
	var marked []int
	for pos, u := range x.units {
		if u.Metadata.DocumentID != documentID {
			continue
		}
		if x.deleted.CheckedAdd(uint32(pos)) {
			marked = append(marked, pos)
		}
	}
	if len(marked) > 0 {
		log.Debug("tombstoned %d entries of document %s", len(marked), documentID)
	}
	return marked
}

// Undelete clears the tombstones at positions. Out-of-range positions are ignored.
func (x *Index) Undelete(positions []int) {
	for _, pos := range positions {
		if pos >= 0 && pos < len(x.units) {
			x.deleted.Remove(uint32(pos))
		}
	}
}

// Compact rewrites the index without tombstoned entries.
// Positions of the surviving entries shift down accordingly.
func (x *Index) Compact() int {
	removed := int(x.deleted.GetCardinality())
	if removed == 0 {
		return 0
	}

	live := len(x.units) - removed
	vectors := make([]float32, 0, live*x.dim)
	units := make([]domain.TextUnit, 0, live)
	for pos := range x.units {
		if x.deleted.Contains(uint32(pos)) {
			continue
		}
		vectors = append(vectors, x.row(pos)...)
		units = append(units, x.units[pos])
	}

	x.vectors = vectors
	x.units = units
	x.deleted = roaring.New()
	log.Debug("compacted %d entries, %d remain", removed, live)
	return removed
}

// Len returns the number of stored entries, tombstoned ones included.
func (x *Index) Len() int {
	return len(x.units)
}

// Dimension returns the vector length, or 0 before the first insert.
func (x *Index) Dimension() int {
	return x.dim
}

// Stats summarises the index.
func (x *Index) Stats() domain.IndexStats {
	deleted := int(x.deleted.GetCardinality())
	return domain.IndexStats{
		Entries:     len(x.units),
		Live:        len(x.units) - deleted,
		Deleted:     deleted,
		Dimension:   x.dim,
		Path:        x.path,
		Compression: x.compression.String(),
	}
}

func (x *Index) liveCount() int {
	return len(x.units) - int(x.deleted.GetCardinality())
}

func (x *Index) row(pos int) []float32 {
	return x.vectors[pos*x.dim : (pos+1)*x.dim]
}
