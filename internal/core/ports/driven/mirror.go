package driven

import "context"

// SnapshotMirror copies a persisted index directory to and from remote storage.
type SnapshotMirror interface {
	// Push uploads every file of the index directory.
	Push(ctx context.Context, dir string) error

	// Pull downloads the remote snapshot into dir. The local index is only
	// replaced once the download restores cleanly.
	// Returns ErrNotFound when the remote holds no snapshot.
	Pull(ctx context.Context, dir string) error
}
