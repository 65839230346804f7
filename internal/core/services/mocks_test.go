package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockChunker returns a fixed set of units for every file.
type mockChunker struct {
	mu    sync.Mutex
	units []domain.TextUnit
	err   error
	calls int
}

func (m *mockChunker) Chunk(_ context.Context, _, _ string) ([]domain.TextUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TextUnit, len(m.units))
	copy(out, m.units)
	return out, nil
}

// mockEmbedder maps known texts to fixed vectors and everything else to
// a vector derived from the text length.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	err      error
	calls    int
	dims     int
	embedded []string
}

func newMockEmbedder(vectors map[string][]float32) *mockEmbedder {
	return &mockEmbedder{vectors: vectors, dims: 2}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return []float32{float32(len(text)), 0}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	m.embedded = append(m.embedded, texts...)
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return m.err }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockChunker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// flakyIndex wraps a real index and can fail Persist.
type flakyIndex struct {
	driven.VectorIndex
	persistErr error
	persists   int
}

func (f *flakyIndex) Persist(dir string) error {
	f.persists++
	if f.persistErr != nil {
		return f.persistErr
	}
	return f.VectorIndex.Persist(dir)
}

// mockLoader hands out a flakyIndex around a flat index.
type mockLoader struct {
	index      *flakyIndex
	restoreErr error
}

func newMockLoader() *mockLoader {
	return &mockLoader{
		index:      &flakyIndex{VectorIndex: flat.New()},
		restoreErr: fmt.Errorf("%w: test", domain.ErrIndexNotFound),
	}
}

func (m *mockLoader) Restore(string) (driven.VectorIndex, error) {
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	return m.index, nil
}

func (m *mockLoader) New() driven.VectorIndex {
	return m.index
}

// mockMirror records pushes.
type mockMirror struct {
	mu     sync.Mutex
	pushes []string
	err    error
	onPush func()
}

func (m *mockMirror) Push(_ context.Context, dir string) error {
	if m.onPush != nil {
		m.onPush()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, dir)
	return m.err
}

func (m *mockMirror) Pull(context.Context, string) error {
	return domain.ErrNotFound
}

// mockGenerator records the prompts it receives.
type mockGenerator struct {
	response     string
	err          error
	prompt       string
	systemPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	m.prompt = prompt
	m.systemPrompt = systemPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockGenerator) ModelName() string          { return "mock-llm" }
func (m *mockGenerator) Ping(context.Context) error { return m.err }
func (m *mockGenerator) Close() error               { return nil }

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem:         "SYSTEM",
		driven.PromptAnswerWithContext:    "CTX[%s] Q[%s]",
		driven.PromptAnswerWithoutContext: "NOCTX Q[%s]",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRetrieval serves a canned context.
type mockRetrieval struct {
	context  *domain.RetrievalContext
	err      error
	deleted  []string
	ingested []domain.IngestRequest
	mu       sync.Mutex
}

func (m *mockRetrieval) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.ingested = append(m.ingested, req)
	return &domain.IngestResult{
		Status:         IngestStatusSuccess,
		DocumentID:     fmt.Sprintf("doc-%d", len(m.ingested)),
		UnitsProcessed: 1,
	}, nil
}

func (m *mockRetrieval) Query(context.Context, string, domain.QueryOptions) (*domain.RetrievalContext, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.context, nil
}

func (m *mockRetrieval) Search(context.Context, string, domain.QueryOptions) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrieval) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockRetrieval) Compact(context.Context) (int, error) { return 0, m.err }

func (m *mockRetrieval) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, m.err
}

func (m *mockRetrieval) ingestedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, len(m.ingested))
	for i, r := range m.ingested {
		paths[i] = r.Path
	}
	return paths
}

func (m *mockRetrieval) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
