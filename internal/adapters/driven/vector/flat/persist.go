package flat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const (
	formatVersion  = 1
	manifestFile   = "manifest.json"
	documentsFile  = "documents.json"
	tombstonesFile = "tombstones.roar"
	vectorFileBase = "vectors.f32"

	backupSuffix = ".bak"
	lockSuffix   = ".lock"
)

// manifest describes a persisted index directory.
type manifest struct {
	FormatVersion  int       `json:"format_version"`
	CreatedAt      time.Time `json:"created_at"`
	Dim            int       `json:"dim"`
	Count          int       `json:"count"`
	Compression    string    `json:"compression"`
	VectorFile     string    `json:"vector_file"`
	DocumentsFile  string    `json:"documents_file"`
	TombstonesFile string    `json:"tombstones_file,omitempty"`
}

// Persist writes the index to dir.
//
// Files are written to a temporary sibling directory which then replaces dir
// by rename. The previous copy is kept as dir.bak until the swap succeeds.
// A file lock on dir.lock serialises writers across processes.
func (x *Index) Persist(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty index path", domain.ErrInvalidInput)
	}
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)

	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent: %w", err)
	}

	unlock, err := acquireLock(dir+lockSuffix, x.lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := x.writeFiles(tmp); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := swapDir(tmp, dir); err != nil {
		return err
	}

	x.path = dir
	log.Debug("persisted %d entries to %s (%s)", len(x.units), dir, x.compression)
	return nil
}

// Install replaces dir with the index directory src, which must be a sibling
// of dir on the same filesystem. src is restored first and rejected when it
// does not load, so a bad copy never replaces a good one. Install takes the
// same lock and backup steps as Persist; only the lock timeout option applies.
func Install(src, dir string, opts ...Option) error {
	if src == "" || dir == "" {
		return fmt.Errorf("%w: empty index path", domain.ErrInvalidInput)
	}
	dir = filepath.Clean(dir)

	restored, err := Restore(src)
	if err != nil {
		return fmt.Errorf("validate %s: %w", filepath.Base(src), err)
	}

	unlock, err := acquireLock(dir+lockSuffix, New(opts...).lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	if err := swapDir(src, dir); err != nil {
		return err
	}
	log.Debug("installed %d entries at %s", restored.Len(), dir)
	return nil
}

func (x *Index) writeFiles(dir string) error {
	vectorFile := vectorFileName(x.compression)
	payload, err := compress(x.compression, encodeVectors(x.vectors))
	if err != nil {
		return err
	}
	if err := writeFileSync(filepath.Join(dir, vectorFile), payload); err != nil {
		return err
	}

	units := x.units
	if units == nil {
		units = []domain.TextUnit{}
	}
	docs, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := writeFileSync(filepath.Join(dir, documentsFile), docs); err != nil {
		return err
	}

	m := manifest{
		FormatVersion: formatVersion,
		CreatedAt:     time.Now().UTC(),
		Dim:           x.dim,
		Count:         len(x.units),
		Compression:   x.compression.String(),
		VectorFile:    vectorFile,
		DocumentsFile: documentsFile,
	}

	if !x.deleted.IsEmpty() {
		var buf bytes.Buffer
		if _, err := x.deleted.WriteTo(&buf); err != nil {
			return fmt.Errorf("encode tombstones: %w", err)
		}
		if err := writeFileSync(filepath.Join(dir, tombstonesFile), buf.Bytes()); err != nil {
			return err
		}
		m.TombstonesFile = tombstonesFile
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	// The manifest goes last: a directory without one is never restored.
	return writeFileSync(filepath.Join(dir, manifestFile), data)
}

// swapDir replaces dir with tmp and syncs the parent directory.
func swapDir(tmp, dir string) error {
	// MkdirTemp creates 0700 directories.
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("chmod index: %w", err)
	}

	bak := dir + backupSuffix
	if err := os.RemoveAll(bak); err != nil {
		return fmt.Errorf("remove stale backup: %w", err)
	}

	hadPrevious := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, bak); err != nil {
			return fmt.Errorf("move previous index aside: %w", err)
		}
		hadPrevious = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat index: %w", err)
	}

	if err := os.Rename(tmp, dir); err != nil {
		if hadPrevious {
			if rerr := os.Rename(bak, dir); rerr != nil {
				log.Error("restore previous index from %s: %v", bak, rerr)
			}
		}
		return fmt.Errorf("install index: %w", err)
	}

	if hadPrevious {
		if err := os.RemoveAll(bak); err != nil {
			log.Warn("remove backup %s: %v", bak, err)
		}
	}
	syncDir(filepath.Dir(dir))
	return nil
}

// syncDir flushes the directory entries of dir. Not every platform supports
// it, so failures are logged only.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		log.Debug("open %s for sync: %v", dir, err)
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		log.Debug("sync %s: %v", dir, err)
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Restore loads an index persisted by Persist.
//
// It returns domain.ErrIndexNotFound when nothing was ever persisted at dir,
// and domain.ErrIndexCorrupt when the files disagree with each other.
// Options override settings read from the manifest, so a restored index can
// switch codec on its next persist.
func Restore(dir string, opts ...Option) (*Index, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty index path", domain.ErrInvalidInput)
	}
	dir = filepath.Clean(dir)

	if err := recoverBackup(dir); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrIndexCorrupt, dir)
	}

	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	compression := domain.Compression(m.Compression)

	raw, err := readIndexFile(dir, m.VectorFile)
	if err != nil {
		return nil, err
	}
	raw, err = decompress(compression, raw)
	if err != nil {
		return nil, err
	}
	if len(raw) != m.Count*m.Dim*4 {
		return nil, fmt.Errorf("%w: vector file holds %d bytes, manifest expects %d entries of %d values",
			domain.ErrIndexCorrupt, len(raw), m.Count, m.Dim)
	}
	vectors, err := decodeVectors(raw)
	if err != nil {
		return nil, err
	}

	docs, err := readIndexFile(dir, m.DocumentsFile)
	if err != nil {
		return nil, err
	}
	var units []domain.TextUnit
	if err := json.Unmarshal(docs, &units); err != nil {
		return nil, fmt.Errorf("%w: documents file: %w", domain.ErrIndexCorrupt, err)
	}
	if len(units) != m.Count {
		return nil, fmt.Errorf("%w: %d documents for %d vectors", domain.ErrIndexCorrupt, len(units), m.Count)
	}

	deleted := roaring.New()
	if m.TombstonesFile != "" {
		data, err := readIndexFile(dir, m.TombstonesFile)
		if err != nil {
			return nil, err
		}
		if _, err := deleted.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: tombstones: %w", domain.ErrIndexCorrupt, err)
		}
		if !deleted.IsEmpty() && int(deleted.Maximum()) >= m.Count {
			return nil, fmt.Errorf("%w: tombstone beyond last entry", domain.ErrIndexCorrupt)
		}
	}

	x := New(append([]Option{WithCompression(compression)}, opts...)...)
	x.dim = m.Dim
	x.vectors = vectors
	x.units = units
	x.deleted = deleted
	x.path = dir

	log.Debug("restored %d entries (dim %d, %d deleted) from %s", m.Count, m.Dim, deleted.GetCardinality(), dir)
	return x, nil
}

// recoverBackup puts dir.bak back when a crash interrupted a swap.
func recoverBackup(dir string) error {
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	bak := dir + backupSuffix
	if _, err := os.Stat(bak); err != nil {
		return nil
	}
	log.Warn("index %s missing, recovering from %s", dir, bak)
	if err := os.Rename(bak, dir); err != nil {
		return fmt.Errorf("recover index backup: %w", err)
	}
	return nil
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		entries, _ := os.ReadDir(dir)
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", domain.ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("%w: missing %s", domain.ErrIndexCorrupt, manifestFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", domain.ErrIndexCorrupt, err)
	}

	switch {
	case m.FormatVersion != formatVersion:
		return nil, fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexCorrupt, m.FormatVersion)
	case m.Dim < 0 || m.Count < 0:
		return nil, fmt.Errorf("%w: negative dimension or count", domain.ErrIndexCorrupt)
	case m.Count > 0 && m.Dim == 0:
		return nil, fmt.Errorf("%w: %d entries without a dimension", domain.ErrIndexCorrupt, m.Count)
	case !domain.Compression(m.Compression).IsValid():
		return nil, fmt.Errorf("%w: unknown compression %q", domain.ErrIndexCorrupt, m.Compression)
	case !isPlainName(m.VectorFile) || !isPlainName(m.DocumentsFile):
		return nil, fmt.Errorf("%w: invalid file names", domain.ErrIndexCorrupt)
	case m.TombstonesFile != "" && !isPlainName(m.TombstonesFile):
		return nil, fmt.Errorf("%w: invalid tombstone file name", domain.ErrIndexCorrupt)
	}
	return &m, nil
}

func readIndexFile(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrIndexCorrupt, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// isPlainName reports whether name is a bare file name inside the index directory.
func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}
