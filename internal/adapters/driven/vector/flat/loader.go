package flat

import "github.com/custodia-labs/ragcore/internal/core/ports/driven"

var _ driven.IndexLoader = Loader{}

// Loader creates and restores flat indexes with a fixed set of options.
type Loader struct {
	Options []Option
}

// Restore loads the index persisted at dir.
func (l Loader) Restore(dir string) (driven.VectorIndex, error) {
	x, err := Restore(dir, l.Options...)
	if err != nil {
		return nil, err
	}
	return x, nil
}

// New returns an empty index.
func (l Loader) New() driven.VectorIndex {
	return New(l.Options...)
}
