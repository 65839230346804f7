// Package flat provides an exact, append-only vector index.
//
// Entries are kept in insertion order as a row-major float32 slice beside
// their text units. Search is a linear scan computing squared Euclidean
// distance, so results are exact. Deleted documents are tombstoned in a
// roaring bitmap and dropped by Compact.
//
// On disk an index is a directory:
//
//	manifest.json     format version, dimension, count, codec
//	vectors.f32[.zst|.lz4]
//	documents.json    the text units, co-indexed with the vectors
//	tombstones.roar   only when something is deleted
//
// Persist writes a sibling temporary directory and renames it into place,
// so a crash never leaves a half-written index behind.
package flat
