// Package minio mirrors persisted index directories to S3-compatible storage.
//
// A snapshot is the flat set of files of one index directory stored under a
// key prefix. The manifest is uploaded after every other file and downloaded
// first, so a remote snapshot without a manifest is treated as absent.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure Mirror implements the interface.
var _ driven.SnapshotMirror = (*Mirror)(nil)

// manifestName is the commit marker of a snapshot.
const manifestName = "manifest.json"

// DefaultConcurrency bounds parallel transfers.
const DefaultConcurrency = 4

var log = logger.With("mirror")

// objectClient is the subset of *minio.Client used by the mirror.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Mirror copies index snapshots to and from a bucket.
type Mirror struct {
	client      objectClient
	bucket      string
	prefix      string
	concurrency int
	lockTimeout time.Duration
}

// New connects to the endpoint described by settings.
func New(settings domain.MirrorSettings) (*Mirror, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: mirror endpoint and bucket are required", domain.ErrInvalidInput)
	}
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMirror(client, settings.Bucket, settings.Prefix), nil
}

func newMirror(client objectClient, bucket, prefix string) *Mirror {
	return &Mirror{
		client:      client,
		bucket:      bucket,
		prefix:      strings.Trim(prefix, "/"),
		concurrency: DefaultConcurrency,
		lockTimeout: flat.DefaultLockTimeout,
	}
}

func (m *Mirror) key(name string) string {
	return path.Join(m.prefix, name)
}

// Push uploads every file of dir and removes remote files that no longer exist locally.
func (m *Mirror) Push(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
	}
	if err != nil {
		return fmt.Errorf("read index dir: %w", err)
	}

	var files []string
	hasManifest := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == manifestName {
			hasManifest = true
			continue
		}
		files = append(files, e.Name())
	}
	if !hasManifest {
		return fmt.Errorf("%w: %s has no %s", domain.ErrIndexNotFound, dir, manifestName)
	}

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	// Data files first, in parallel; the manifest commits the snapshot.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, name := range files {
		g.Go(func() error {
			return m.upload(gctx, dir, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := m.upload(ctx, dir, manifestName); err != nil {
		return err
	}

	keep := make(map[string]bool, len(files)+1)
	keep[manifestName] = true
	for _, name := range files {
		keep[name] = true
	}
	remote, err := m.list(ctx)
	if err != nil {
		return err
	}
	for _, name := range remote {
		if keep[name] {
			continue
		}
		if err := m.client.RemoveObject(ctx, m.bucket, m.key(name), minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
			log.Warn("remove stale object %s: %v", name, err)
		}
	}

	log.Info("pushed %d files to %s/%s", len(files)+1, m.bucket, m.prefix)
	return nil
}

// Pull downloads the remote snapshot into dir, replacing its contents.
// Returns domain.ErrNotFound when the bucket holds no complete snapshot and
// domain.ErrIndexCorrupt when the downloaded files do not restore, in which
// case dir is left as it was.
func (m *Mirror) Pull(ctx context.Context, dir string) error {
	remote, err := m.list(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, name := range remote {
		if name == manifestName {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: no snapshot at %s/%s", domain.ErrNotFound, m.bucket, m.prefix)
	}

	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".pull-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, name := range remote {
		g.Go(func() error {
			return m.download(gctx, tmp, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := flat.Install(tmp, dir, flat.WithLockTimeout(m.lockTimeout)); err != nil {
		return fmt.Errorf("install pulled index: %w", err)
	}

	log.Info("pulled %d files from %s/%s", len(remote), m.bucket, m.prefix)
	return nil
}

func (m *Mirror) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *Mirror) upload(ctx context.Context, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, m.key(name), f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	log.Debug("uploaded %s (%d bytes)", name, info.Size())
	return nil
}

func (m *Mirror) download(ctx context.Context, dir, name string) error {
	err := m.client.FGetObject(ctx, m.bucket, m.key(name), filepath.Join(dir, name), minio.GetObjectOptions{})
	if isNotFound(err) {
		return fmt.Errorf("download %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	return nil
}

// list returns the file names of the remote snapshot.
func (m *Mirror) list(ctx context.Context) ([]string, error) {
	prefix := m.prefix
	if prefix != "" {
		prefix += "/"
	}

	var names []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			if isNotFound(obj.Err) {
				return nil, nil
			}
			return nil, fmt.Errorf("list snapshot: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		// Nested keys are not part of a snapshot.
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}
