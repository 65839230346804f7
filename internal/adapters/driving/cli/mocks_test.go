package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// mockRetrieval implements driving.RetrievalService.
type mockRetrieval struct {
	ingestFunc func(req domain.IngestRequest) (*domain.IngestResult, error)
	context    *domain.RetrievalContext
	stats      domain.IndexStats
	removed    int
	err        error

	ingested []domain.IngestRequest
	queries  []string
	options  []domain.QueryOptions
}

func (m *mockRetrieval) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.ingested = append(m.ingested, req)
	if m.ingestFunc != nil {
		return m.ingestFunc(req)
	}
	return &domain.IngestResult{Status: "success", DocumentID: "doc-1", UnitsProcessed: 2}, nil
}

func (m *mockRetrieval) Query(_ context.Context, text string, opts domain.QueryOptions) (*domain.RetrievalContext, error) {
	m.queries = append(m.queries, text)
	m.options = append(m.options, opts)
	if m.err != nil {
		return nil, m.err
	}
	if m.context == nil {
		return &domain.RetrievalContext{}, nil
	}
	return m.context, nil
}

func (m *mockRetrieval) Search(context.Context, string, domain.QueryOptions) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrieval) DeleteDocument(context.Context, string) error { return m.err }

func (m *mockRetrieval) Compact(context.Context) (int, error) { return m.removed, m.err }

func (m *mockRetrieval) Stats(context.Context) (domain.IndexStats, error) { return m.stats, m.err }

// mockChat implements driving.ChatService.
type mockChat struct {
	answer   *domain.Answer
	history  []domain.Message
	err      error
	asked    []string
	askOpts  []domain.AskOptions
	limits   []int
	messages []domain.Message
}

func (m *mockChat) Ask(_ context.Context, q string, opts domain.AskOptions) (*domain.Answer, error) {
	m.asked = append(m.asked, q)
	m.askOpts = append(m.askOpts, opts)
	return m.answer, m.err
}

func (m *mockChat) History(_ context.Context, limit int) ([]domain.Message, error) {
	m.limits = append(m.limits, limit)
	return m.history, m.err
}

func (m *mockChat) SaveMessage(_ context.Context, msg domain.Message) (*domain.Message, error) {
	m.messages = append(m.messages, msg)
	return &msg, m.err
}

// mockDocuments implements driving.DocumentService.
type mockDocuments struct {
	docs    []domain.Document
	pages   []domain.Page
	content string
	err     error
	deleted []string
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) { return m.docs, m.err }

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Pages(context.Context, string) ([]domain.Page, error) { return m.pages, m.err }

func (m *mockDocuments) Content(context.Context, string) (string, error) { return m.content, m.err }

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

// mockSettings implements driving.SettingsService.
type mockSettings struct {
	settings *domain.AppSettings
	values   map[string]string
	err      error
	set      map[string]string

	embedding     domain.EmbeddingSettings
	llm           domain.LLMSettings
	validateErr   error
	validateCalls int
}

func newMockSettings() *mockSettings {
	defaults := domain.DefaultAppSettings()
	return &mockSettings{
		settings: &defaults,
		values: map[string]string{
			"embedding.provider": "ollama",
			"embedding.model":    "all-minilm",
			"retrieval.k":        "3",
			"mirror.bucket":      "",
		},
		set: make(map[string]string),
	}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) { return m.settings, m.err }

func (m *mockSettings) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettings) Values() (map[string]string, error) { return m.values, m.err }

func (m *mockSettings) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettings) ValidateEmbeddingConfig(context.Context) error {
	m.validateCalls++
	return m.validateErr
}

func (m *mockSettings) ValidateLLMConfig(context.Context) error {
	m.validateCalls++
	return m.validateErr
}

// mockMirror implements driven.SnapshotMirror.
type mockMirror struct {
	mu     sync.Mutex
	pushed []string
	pulled []string
	err    error
}

func (m *mockMirror) Push(_ context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = append(m.pushed, dir)
	return m.err
}

func (m *mockMirror) Pull(_ context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulled = append(m.pulled, dir)
	return m.err
}

var _ driven.SnapshotMirror = (*mockMirror)(nil)

// services installs the given services for the duration of the test.
type services struct {
	retrieval *mockRetrieval
	chat      *mockChat
	documents *mockDocuments
	settings  *mockSettings
	watch     func(ctx context.Context, dir string) error
	mirrors   MirrorFactory
}

func install(t *testing.T, s services) {
	t.Helper()
	if s.retrieval != nil {
		retrievalService = s.retrieval
	}
	if s.chat != nil {
		chatService = s.chat
	}
	if s.documents != nil {
		documentService = s.documents
	}
	if s.settings != nil {
		settingsService = s.settings
	}
	watchFunc = s.watch
	mirrorFactory = s.mirrors

	t.Cleanup(func() {
		retrievalService = nil
		chatService = nil
		documentService = nil
		settingsService = nil
		watchFunc = nil
		mirrorFactory = nil
		bootstrap = nil
		runtimeOnce = sync.Once{}
		runtimeErr = nil
		closeFunc = nil
		resetFlags()
	})
}

// resetFlags restores flag variables changed by earlier executions.
func resetFlags() {
	ingestType, ingestID, ingestJSON = "", "", false
	queryK, queryFilter, queryJSON, askRemember = 0, "", false, false
	historyLimit, historyJSON = 20, false
	documentJSON = false
	indexJSON = false
	serveAddr, serveNoWatch = "", false
}

// execute runs the root command with args and returns its stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	return executeInput(t, ctx, "", args...)
}

// executeInput runs the root command with input as stdin.
func executeInput(t *testing.T, ctx context.Context, input string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	setContext(rootCmd, ctx)

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// setContext gives every command in the tree ctx. Cobra only hands the root
// context to a subcommand whose own context is unset, so a subcommand would
// otherwise keep the context of an earlier test.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}
