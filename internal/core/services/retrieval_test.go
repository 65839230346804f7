package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func pdfUnits(contents ...string) []domain.TextUnit {
	units := make([]domain.TextUnit, len(contents))
	for i, c := range contents {
		units[i] = domain.TextUnit{
			Content: c,
			Metadata: domain.UnitMetadata{
				Source:  "/tmp/upload.pdf",
				Locator: domain.PageLocator(i + 1),
				DocType: domain.DocTypePDF,
			},
		}
	}
	return units
}

type retrievalFixture struct {
	svc      *RetrievalService
	chunker  *mockChunker
	embedder *mockEmbedder
	loader   *mockLoader
	docs     *memory.DocumentStore
	dir      string
}

func newRetrievalFixture(t *testing.T, cfg RetrievalConfig) *retrievalFixture {
	t.Helper()
	f := &retrievalFixture{
		chunker: &mockChunker{units: pdfUnits("alpha page", "beta page")},
		embedder: newMockEmbedder(map[string][]float32{
			"alpha page": {1, 0},
			"beta page":  {0, 1},
			"alpha":      {1, 0.1},
			"beta":       {0.1, 1},
		}),
		loader: newMockLoader(),
		docs:   memory.NewDocumentStore(),
		dir:    filepath.Join(t.TempDir(), "rag_index"),
	}
	cfg.IndexDir = f.dir
	f.svc = NewRetrievalService(f.chunker, f.embedder, f.loader, cfg)
	f.svc.SetDocumentStore(f.docs)
	require.NoError(t, f.svc.Open(context.Background()))
	return f
}

func (f *retrievalFixture) ingest(t *testing.T, filename string) *domain.IngestResult {
	t.Helper()
	res, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		Path:     "/tmp/upload.pdf",
		Filename: filename,
	})
	require.NoError(t, err)
	return res
}

func TestRetrievalService_OpenStartsEmpty(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, f.dir, stats.Path)

	rc, err := f.svc.Query(context.Background(), "anything", domain.QueryOptions{})
	require.NoError(t, err)
	assert.True(t, rc.IsEmpty())
	assert.Empty(t, rc.Context)
	assert.NotNil(t, rc.Sources)
	assert.Equal(t, 0, f.embedder.callCount(), "empty index is answered without embedding")
}

func TestRetrievalService_OpenSeedsEmptyIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rag_index")
	embedder := newMockEmbedder(nil)
	svc := NewRetrievalService(&mockChunker{}, embedder, flat.Loader{}, RetrievalConfig{IndexDir: dir, Seed: true})
	require.NoError(t, svc.Open(context.Background()))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(defaultSeed), stats.Entries)

	results, err := svc.Search(context.Background(), "what is RAG", domain.QueryOptions{K: 5})
	require.NoError(t, err)
	require.Len(t, results, len(defaultSeed))
	for _, r := range results {
		assert.Equal(t, SeedSource, r.Unit.Metadata.Source)
		assert.Equal(t, domain.DocTypeSystem, r.Unit.Metadata.DocType)
	}

	// A restored index that already holds units is not seeded again.
	again := NewRetrievalService(&mockChunker{}, embedder, flat.Loader{}, RetrievalConfig{IndexDir: dir, Seed: true})
	require.NoError(t, again.Open(context.Background()))
	stats, err = again.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(defaultSeed), stats.Entries)
}

func TestRetrievalService_OpenCorruptIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rag_index")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{broken"), 0o644))

	svc := NewRetrievalService(&mockChunker{}, newMockEmbedder(nil), flat.Loader{}, RetrievalConfig{IndexDir: dir})
	err := svc.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestRetrievalService_NotOpen(t *testing.T) {
	svc := NewRetrievalService(&mockChunker{}, newMockEmbedder(nil), newMockLoader(), RetrievalConfig{})
	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, errNotOpen)
	_, err = svc.Query(context.Background(), "q", domain.QueryOptions{})
	assert.ErrorIs(t, err, errNotOpen)
}

func TestRetrievalService_Ingest(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	ctx := context.Background()

	res := f.ingest(t, "report.pdf")
	assert.Equal(t, IngestStatusSuccess, res.Status)
	assert.Equal(t, 2, res.UnitsProcessed)
	assert.NotEmpty(t, res.DocumentID)
	assert.Contains(t, res.Message, "report.pdf")
	assert.Empty(t, res.Warnings)

	results, err := f.svc.Search(ctx, "alpha", domain.QueryOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha page", results[0].Unit.Content)
	assert.Equal(t, "report.pdf", results[0].Unit.Metadata.Source)
	assert.Equal(t, res.DocumentID, results[0].Unit.Metadata.DocumentID)

	doc, err := f.docs.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "pdf", doc.FileType)
	assert.Equal(t, 2, doc.TotalPages)
	assert.Equal(t, domain.DocumentStatusProcessed, doc.Status)

	pages, err := f.docs.GetPages(ctx, res.DocumentID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Equal(t, "beta page", pages[1].Content)

	// Persisted: a fresh restore sees both units.
	restored, err := flat.Restore(f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())
}

func TestRetrievalService_IngestUsesRequestDocumentID(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	res, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		Path:       "/tmp/x.bin",
		Filename:   "notes.docx",
		DocumentID: "doc-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-42", res.DocumentID)
}

func TestRetrievalService_IngestValidation(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, domain.IngestRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Ingest(ctx, domain.IngestRequest{Path: "/tmp/notes.txt"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = f.svc.Ingest(ctx, domain.IngestRequest{Path: "/tmp/a.pdf", FileType: "xlsx"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	assert.Equal(t, 0, f.chunker.callCount(), "format is checked before chunking")
}

func TestRetrievalService_IngestExtractionFailed(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.chunker.err = domain.ErrExtractionFailed

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Path: "/tmp/empty.pdf"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	f.chunker.err = nil
	f.chunker.units = nil
	_, err = f.svc.Ingest(context.Background(), domain.IngestRequest{Path: "/tmp/empty.pdf"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestRetrievalService_IngestEmbedFailureLeavesIndexUntouched(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.embedder.err = domain.ErrModelUnavailable

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Path: "/tmp/a.pdf"})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, 0, f.loader.index.Len())
	assert.Equal(t, 0, f.loader.index.persists)
}

func TestRetrievalService_IngestPersistFailureRollsBack(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	first := f.ingest(t, "first.pdf")

	f.loader.index.persistErr = errors.New("disk full")
	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{Path: "/tmp/second.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 2, f.loader.index.Len(), "rolled back to the pre-insert length")
	docs, err := f.docs.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1, "no record for the failed ingest")
	assert.Equal(t, first.DocumentID, docs[0].ID)

	restored, err := flat.Restore(f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len(), "persisted index is the previous one")
}

// failingDocStore rejects every write.
type failingDocStore struct {
	*memory.DocumentStore
}

func (failingDocStore) SaveDocument(context.Context, *domain.Document) error {
	return errors.New("database is locked")
}

func TestRetrievalService_IngestStoreFailureIsWarning(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.svc.SetDocumentStore(failingDocStore{memory.NewDocumentStore()})

	res := f.ingest(t, "report.pdf")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "database is locked")
	assert.Equal(t, 2, f.loader.index.Len())
}

func TestRetrievalService_IngestRunsPipeline(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.svc.SetPipeline(pipelineFunc(func(units []domain.TextUnit) []domain.TextUnit {
		return units[:1]
	}))

	res := f.ingest(t, "report.pdf")
	assert.Equal(t, 1, res.UnitsProcessed)
}

type pipelineFunc func([]domain.TextUnit) []domain.TextUnit

func (p pipelineFunc) Process(_ context.Context, units []domain.TextUnit) ([]domain.TextUnit, error) {
	return p(units), nil
}

func TestRetrievalService_QueryBuildsContext(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	long := strings.Repeat("x", 250)
	f.chunker.units = pdfUnits("alpha page", long)
	f.chunker.units[1].Metadata.Locator = nil
	f.ingest(t, "")

	rc, err := f.svc.Query(context.Background(), "alpha", domain.QueryOptions{})
	require.NoError(t, err)

	// Two stored units, default k of 3.
	require.Len(t, rc.Sources, 2)
	assert.Equal(t, "alpha page\n\n"+long, rc.Context)
	assert.Equal(t, "upload.pdf", rc.Sources[0].Filename)
	assert.Equal(t, 1, rc.Sources[0].Locator)
	assert.Equal(t, "alpha page", rc.Sources[0].Excerpt)
	assert.Equal(t, 0, rc.Sources[1].Locator)
	assert.Equal(t, strings.Repeat("x", 200)+"...", rc.Sources[1].Excerpt)
}

func TestRetrievalService_QueryK(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{K: 1})
	f.ingest(t, "report.pdf")

	results, err := f.svc.Search(context.Background(), "beta", domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1, "configured default k")
	assert.Equal(t, "beta page", results[0].Unit.Content)

	results, err = f.svc.Search(context.Background(), "beta", domain.QueryOptions{K: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrievalService_QueryBlank(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	_, err := f.svc.Query(context.Background(), "   ", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_QueryFilter(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.ingest(t, "report.pdf")
	ctx := context.Background()

	results, err := f.svc.Search(ctx, "alpha", domain.QueryOptions{K: 5, Filter: `page > 1`})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta page", results[0].Unit.Content)

	results, err = f.svc.Search(ctx, "alpha", domain.QueryOptions{K: 5, Filter: `source == "other.pdf"`})
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.svc.Search(ctx, "alpha", domain.QueryOptions{Filter: `page >`})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_QueryEmbedFailure(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	f.ingest(t, "report.pdf")
	f.embedder.err = domain.ErrModelUnavailable

	_, err := f.svc.Query(context.Background(), "alpha", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestRetrievalService_DeleteDocument(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	ctx := context.Background()
	f.chunker.units = pdfUnits("alpha page")
	gone := f.ingest(t, "gone.pdf")
	f.chunker.units = pdfUnits("beta page")
	kept := f.ingest(t, "kept.pdf")

	require.NoError(t, f.svc.DeleteDocument(ctx, gone.DocumentID))

	results, err := f.svc.Search(ctx, "alpha", domain.QueryOptions{K: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.DocumentID, results[0].Unit.Metadata.DocumentID)

	_, err = f.docs.GetDocument(ctx, gone.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	restored, err := flat.Restore(f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Stats().Deleted, "tombstone persisted")

	assert.ErrorIs(t, f.svc.DeleteDocument(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteDocument(ctx, ""), domain.ErrInvalidInput)
}

func TestRetrievalService_DeletePersistFailureRestoresDocument(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	ctx := context.Background()
	res := f.ingest(t, "report.pdf")

	f.loader.index.persistErr = errors.New("disk full")
	err := f.svc.DeleteDocument(ctx, res.DocumentID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	results, err := f.svc.Search(ctx, "alpha", domain.QueryOptions{K: 5})
	require.NoError(t, err)
	assert.Len(t, results, 2, "document is still searchable")
	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Deleted)

	_, err = f.docs.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err, "document row kept")

	// The next successful persist does not carry the failed delete.
	f.loader.index.persistErr = nil
	f.ingest(t, "other.pdf")
	restored, err := flat.Restore(f.dir)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Stats().Live)
	assert.Equal(t, 0, restored.Stats().Deleted)
}

func TestRetrievalService_Compact(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	ctx := context.Background()
	res := f.ingest(t, "report.pdf")

	removed, err := f.svc.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	require.NoError(t, f.svc.DeleteDocument(ctx, res.DocumentID))
	removed, err = f.svc.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, 0, stats.Deleted)
}

func TestRetrievalService_MirrorPushOnPersist(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{PushOnPersist: true})
	mirror := &mockMirror{}
	f.svc.SetMirror(mirror)

	f.ingest(t, "report.pdf")
	assert.Equal(t, []string{f.dir}, mirror.pushes)

	// Push failures never fail the write.
	mirror.err = errors.New("bucket unreachable")
	f.ingest(t, "again.pdf")
	assert.Len(t, mirror.pushes, 2)
}

func TestRetrievalService_MirrorDisabled(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{})
	mirror := &mockMirror{}
	f.svc.SetMirror(mirror)

	f.ingest(t, "report.pdf")
	assert.Empty(t, mirror.pushes)
}

func TestRetrievalService_MirrorPushRunsOutsideLock(t *testing.T) {
	f := newRetrievalFixture(t, RetrievalConfig{PushOnPersist: true})
	ctx := context.Background()

	var mu sync.Mutex
	var unlocked []bool
	mirror := &mockMirror{onPush: func() {
		free := f.svc.mu.TryLock()
		if free {
			f.svc.mu.Unlock()
		}
		mu.Lock()
		unlocked = append(unlocked, free)
		mu.Unlock()
	}}
	f.svc.SetMirror(mirror)

	res := f.ingest(t, "report.pdf")
	require.NoError(t, f.svc.DeleteDocument(ctx, res.DocumentID))
	removed, err := f.svc.Compact(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	assert.Equal(t, []bool{true, true, true}, unlocked)
}

func TestRetrievalService_ConcurrentIngestAndQuery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rag_index")
	chunker := &mockChunker{units: pdfUnits("alpha page", "beta page")}
	svc := NewRetrievalService(chunker, newMockEmbedder(nil), flat.Loader{}, RetrievalConfig{IndexDir: dir})
	ctx := context.Background()
	require.NoError(t, svc.Open(ctx))

	const writers, perWriter = 4, 3
	var writersWG, readersWG sync.WaitGroup
	done := make(chan struct{})

	for range 3 {
		readersWG.Add(1)
		go func() {
			defer readersWG.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				results, err := svc.Search(ctx, "alpha", domain.QueryOptions{K: 100})
				if !assert.NoError(t, err) {
					return
				}
				assert.Zero(t, len(results)%2, "ingests are visible whole")
				for _, r := range results {
					assert.NotEmpty(t, r.Unit.Content)
					assert.NotEmpty(t, r.Unit.Metadata.DocumentID)
				}
			}
		}()
	}

	for range writers {
		writersWG.Add(1)
		go func() {
			defer writersWG.Done()
			for range perWriter {
				_, err := svc.Ingest(ctx, domain.IngestRequest{Path: "/tmp/upload.pdf", Filename: "report.pdf"})
				assert.NoError(t, err)
			}
		}()
	}
	writersWG.Wait()
	close(done)
	readersWG.Wait()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter*2, stats.Entries)
	assert.Equal(t, writers*perWriter, chunker.callCount())

	restored, err := flat.Loader{}.Restore(dir)
	require.NoError(t, err)
	assert.Equal(t, stats.Entries, restored.Len())

	perDoc := map[string]int{}
	results, err := restored.Search([]float32{10, 0}, restored.Len())
	require.NoError(t, err)
	for _, r := range results {
		perDoc[r.Unit.Metadata.DocumentID]++
	}
	assert.Len(t, perDoc, writers*perWriter)
	for id, n := range perDoc {
		assert.Equal(t, 2, n, id)
	}
}
