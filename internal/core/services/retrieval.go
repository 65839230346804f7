package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// IngestStatusSuccess is the status of a completed ingest.
const IngestStatusSuccess = "success"

var errNotOpen = errors.New("retrieval service is not open")

// RetrievalConfig holds the settings the coordinator needs.
type RetrievalConfig struct {
	// IndexDir is where the index persists.
	IndexDir string

	// K is the default number of results. Zero means domain.DefaultK.
	K int

	// Seed inserts seed units into an index that is empty at Open.
	Seed bool

	// SeedFile replaces the built-in seed units when set.
	SeedFile string

	// PushOnPersist mirrors the index after every successful persist.
	PushOnPersist bool
}

// RetrievalService coordinates chunking, embedding and the vector index.
//
// Writers (ingest, delete, compact) hold the write lock across insert and
// persist so a failed persist can be rolled back before any reader sees
// the new entries. Searches share the read lock. Mirror pushes run after
// the lock is released.
type RetrievalService struct {
	chunker  driven.Chunker
	embedder driven.Embedder
	loader   driven.IndexLoader
	pipeline driven.UnitPipeline
	docStore driven.DocumentStore
	mirror   driven.SnapshotMirror
	cfg      RetrievalConfig

	mu    sync.RWMutex
	index driven.VectorIndex

	filterOnce sync.Once
	filters    *FilterCompiler
	filterErr  error
}

// NewRetrievalService creates a retrieval service. Call Open before use.
func NewRetrievalService(
	chunker driven.Chunker,
	embedder driven.Embedder,
	loader driven.IndexLoader,
	cfg RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{
		chunker:  chunker,
		embedder: embedder,
		loader:   loader,
		cfg:      cfg,
	}
}

// SetPipeline sets the post-processing pipeline run after chunking.
func (s *RetrievalService) SetPipeline(p driven.UnitPipeline) {
	s.pipeline = p
}

// SetDocumentStore sets the store that records ingested documents.
func (s *RetrievalService) SetDocumentStore(store driven.DocumentStore) {
	s.docStore = store
}

// SetMirror sets the remote mirror used when PushOnPersist is on.
func (s *RetrievalService) SetMirror(m driven.SnapshotMirror) {
	s.mirror = m
}

// Open restores the persisted index, or starts an empty one when none exists.
// A corrupt index is an error. An empty index is seeded when configured.
func (s *RetrievalService) Open(ctx context.Context) error {
	seeded, err := s.open(ctx)
	if err != nil {
		return err
	}
	if seeded {
		s.pushMirror(ctx)
	}
	return nil
}

// open reports whether it seeded and persisted a new index.
func (s *RetrievalService) open(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return false, nil
	}

	logger.Section("Open Index")
	idx, err := s.loader.Restore(s.cfg.IndexDir)
	switch {
	case errors.Is(err, domain.ErrIndexNotFound):
		logger.Info("No index at %s, starting empty", s.cfg.IndexDir)
		idx = s.loader.New()
	case err != nil:
		return false, fmt.Errorf("open index: %w", err)
	default:
		logger.Info("Restored %d units from %s", idx.Len(), s.cfg.IndexDir)
	}

	seeded := false
	if s.cfg.Seed && idx.Len() == 0 {
		if seeded, err = s.seed(ctx, idx); err != nil {
			return false, err
		}
	}

	s.index = idx
	return seeded, nil
}

func (s *RetrievalService) seed(ctx context.Context, idx driven.VectorIndex) (bool, error) {
	units, err := LoadSeedUnits(s.cfg.SeedFile)
	if err != nil {
		return false, err
	}
	if len(units) == 0 {
		return false, nil
	}

	vectors, err := s.embed(ctx, units)
	if err != nil {
		return false, fmt.Errorf("embed seed units: %w", err)
	}
	if err := s.commit(idx, vectors, units); err != nil {
		return false, fmt.Errorf("seed index: %w", err)
	}
	logger.Info("Seeded index with %d units", len(units))
	return true, nil
}

// Ingest chunks, embeds, indexes and persists one file.
func (s *RetrievalService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(req.Path) == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.Path)
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = filepath.Ext(filename)
	}
	docType, err := domain.ParseFileType(fileType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.New().String()
	}
	logger.Debug("File: %s, type: %s, document: %s", filename, docType, documentID)

	units, err := s.chunker.Chunk(ctx, req.Path, docType.String())
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", filename, err)
	}
	if s.pipeline != nil {
		units, err = s.pipeline.Process(ctx, units)
		if err != nil {
			return nil, fmt.Errorf("post-process %s: %w", filename, err)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, domain.ErrExtractionFailed)
	}
	for i := range units {
		units[i].Metadata.Source = filename
		units[i].Metadata.DocumentID = documentID
	}
	logger.Debug("Chunked into %d units", len(units))

	vectors, err := s.embed(ctx, units)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.index == nil {
		s.mu.Unlock()
		return nil, errNotOpen
	}
	err = s.commit(s.index, vectors, units)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.pushMirror(ctx)

	result := &domain.IngestResult{
		Status:         IngestStatusSuccess,
		Message:        fmt.Sprintf("Successfully processed document: %s", filename),
		UnitsProcessed: len(units),
		DocumentID:     documentID,
	}
	result.Warnings = s.recordDocument(ctx, documentID, filename, docType, units)

	logger.Info("Ingested %s: %d units", filename, len(units))
	return result, nil
}

func (s *RetrievalService) embed(ctx context.Context, units []domain.TextUnit) ([][]float32, error) {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Content
	}
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(units) {
		return nil, fmt.Errorf("%w: %d embeddings for %d units", domain.ErrLengthMismatch, len(vectors), len(units))
	}
	return vectors, nil
}

// commit inserts and persists; a failed persist truncates the insert away.
// Callers hold the write lock (or own idx exclusively).
func (s *RetrievalService) commit(idx driven.VectorIndex, vectors [][]float32, units []domain.TextUnit) error {
	n := idx.Len()
	if err := idx.Insert(vectors, units); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if err := idx.Persist(s.cfg.IndexDir); err != nil {
		idx.Truncate(n)
		logger.Warn("Persist failed, rolled back %d units: %v", len(units), err)
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// pushMirror mirrors the persisted index. Failures are logged only;
// the local copy is authoritative. Callers must not hold s.mu.
func (s *RetrievalService) pushMirror(ctx context.Context) {
	if !s.cfg.PushOnPersist || s.mirror == nil {
		return
	}
	if err := s.mirror.Push(ctx, s.cfg.IndexDir); err != nil {
		logger.Warn("Mirror push failed: %v", err)
	}
}

// recordDocument writes the document and page rows. The rows describe the
// index but do not gate it, so failures come back as warnings.
func (s *RetrievalService) recordDocument(
	ctx context.Context, documentID, filename string, docType domain.DocType, units []domain.TextUnit,
) []string {
	if s.docStore == nil {
		return nil
	}

	var warnings []string
	doc := &domain.Document{
		ID:         documentID,
		Filename:   filename,
		FileType:   docType.String(),
		TotalPages: len(units),
		Status:     domain.DocumentStatusProcessed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Failed to save document %s: %v", documentID, err)
		return append(warnings, fmt.Sprintf("document record not saved: %v", err))
	}

	pages := make([]domain.Page, len(units))
	for i, u := range units {
		pages[i] = domain.Page{
			DocumentID: documentID,
			PageNumber: i + 1,
			Content:    u.Content,
			Metadata:   u.Metadata,
		}
	}
	if err := s.docStore.SavePages(ctx, pages); err != nil {
		logger.Warn("Failed to save pages of %s: %v", documentID, err)
		warnings = append(warnings, fmt.Sprintf("page records not saved: %v", err))
	}
	return warnings
}

// Query returns the joined context and citations for the nearest units.
func (s *RetrievalService) Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.RetrievalContext, error) {
	results, err := s.Search(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	return domain.BuildContext(results), nil
}

// Search returns the ranked hits for text.
func (s *RetrievalService) Search(ctx context.Context, text string, opts domain.QueryOptions) ([]domain.SearchResult, error) {
	logger.Section("Query")
	logger.Debug("Query: %q", text)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	k := s.effectiveK(opts)

	keep, err := s.compileFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.index == nil {
		s.mu.RUnlock()
		return nil, errNotOpen
	}
	live := s.index.Stats().Live
	s.mu.RUnlock()
	if live == 0 {
		logger.Debug("Index is empty, returning no results")
		return []domain.SearchResult{}, nil
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult
	if keep != nil {
		results, err = s.index.SearchFiltered(vector, k, keep)
	} else {
		results, err = s.index.Search(vector, k)
	}
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Returning %d results (k=%d)", len(results), k)
	return results, nil
}

func (s *RetrievalService) effectiveK(opts domain.QueryOptions) int {
	if opts.K > 0 {
		return opts.K
	}
	if s.cfg.K > 0 {
		return s.cfg.K
	}
	return domain.DefaultK
}

func (s *RetrievalService) compileFilter(expr string) (UnitFilter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	s.filterOnce.Do(func() {
		s.filters, s.filterErr = NewFilterCompiler()
	})
	if s.filterErr != nil {
		return nil, s.filterErr
	}
	return s.filters.Compile(expr)
}

// DeleteDocument tombstones a document's units, persists, and removes its rows.
// A failed persist clears the new tombstones again.
func (s *RetrievalService) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.index == nil {
		s.mu.Unlock()
		return errNotOpen
	}
	marked := s.index.Delete(documentID)
	removed := len(marked)
	if removed > 0 {
		if err := s.index.Persist(s.cfg.IndexDir); err != nil {
			s.index.Undelete(marked)
			s.mu.Unlock()
			logger.Warn("Persist failed, restored %d units of %s: %v", removed, documentID, err)
			return fmt.Errorf("persist index: %w", err)
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.pushMirror(ctx)
	}
	logger.Debug("Tombstoned %d units of %s", removed, documentID)

	storeErr := domain.ErrNotFound
	if s.docStore != nil {
		storeErr = s.docStore.DeleteDocument(ctx, documentID)
	}
	switch {
	case storeErr == nil:
		return nil
	case errors.Is(storeErr, domain.ErrNotFound):
		if removed > 0 {
			return nil
		}
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	default:
		return fmt.Errorf("delete document record: %w", storeErr)
	}
}

// Compact drops tombstoned units and persists the result.
func (s *RetrievalService) Compact(ctx context.Context) (int, error) {
	removed, err := s.compact()
	if err != nil || removed == 0 {
		return removed, err
	}
	s.pushMirror(ctx)
	logger.Info("Compacted %d units", removed)
	return removed, nil
}

func (s *RetrievalService) compact() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return 0, errNotOpen
	}
	removed := s.index.Compact()
	if removed == 0 {
		return 0, nil
	}
	if err := s.index.Persist(s.cfg.IndexDir); err != nil {
		return removed, fmt.Errorf("persist index: %w", err)
	}
	return removed, nil
}

// Stats summarises the index.
func (s *RetrievalService) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return domain.IndexStats{}, errNotOpen
	}
	stats := s.index.Stats()
	if stats.Path == "" {
		stats.Path = s.cfg.IndexDir
	}
	return stats, nil
}
