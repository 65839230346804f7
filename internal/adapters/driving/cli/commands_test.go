package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var testSources = []domain.Source{
	{Filename: "report.pdf", Locator: 2, Excerpt: "Revenue grew\nby ten percent..."},
	{Filename: "notes.docx", Locator: 1, Excerpt: "Meeting notes..."},
}

func TestIngestCmd(t *testing.T) {
	retrieval := &mockRetrieval{ingestFunc: func(req domain.IngestRequest) (*domain.IngestResult, error) {
		return &domain.IngestResult{
			Status:         "success",
			DocumentID:     "doc-" + req.Filename,
			UnitsProcessed: 3,
			Warnings:       []string{"LLM unavailable"},
		}, nil
	}}
	install(t, services{retrieval: retrieval})

	out, _, err := execute(t, "ingest", "/tmp/in/report.pdf", "notes.docx", "--type", "pdf")

	require.NoError(t, err)
	require.Len(t, retrieval.ingested, 2)
	assert.Equal(t, "report.pdf", retrieval.ingested[0].Filename)
	assert.Equal(t, "/tmp/in/report.pdf", retrieval.ingested[0].Path)
	assert.Equal(t, "pdf", retrieval.ingested[1].FileType)
	assert.Contains(t, out, "report.pdf: 3 units (document doc-report.pdf)")
	assert.Contains(t, out, "warning: LLM unavailable")
}

func TestIngestCmd_IDWithSeveralFiles(t *testing.T) {
	retrieval := &mockRetrieval{}
	install(t, services{retrieval: retrieval})

	_, _, err := execute(t, "ingest", "a.pdf", "b.pdf", "--id", "fixed")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "single file")
	assert.Empty(t, retrieval.ingested)
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	retrieval := &mockRetrieval{ingestFunc: func(req domain.IngestRequest) (*domain.IngestResult, error) {
		if req.Filename == "bad.txt" {
			return nil, domain.ErrUnsupportedFormat
		}
		return &domain.IngestResult{DocumentID: "doc-1", UnitsProcessed: 1}, nil
	}}
	install(t, services{retrieval: retrieval})

	out, errOut, err := execute(t, "ingest", "good.pdf", "bad.txt")

	require.EqualError(t, err, "1 of 2 files failed")
	assert.Contains(t, out, "good.pdf: 1 units")
	assert.Contains(t, errOut, "bad.txt")
}

func TestIngestCmd_JSON(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}})

	out, _, err := execute(t, "ingest", "report.pdf", "--json", "--id", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, `"document_id": "doc-1"`)
	assert.NotContains(t, out, "units (document")
}

func TestQueryCmd(t *testing.T) {
	retrieval := &mockRetrieval{context: &domain.RetrievalContext{Context: "x", Sources: testSources}}
	install(t, services{retrieval: retrieval})

	out, _, err := execute(t, "query", "how", "did", "revenue", "change", "-k", "5", "--filter", `doc_type == "pdf"`)

	require.NoError(t, err)
	assert.Equal(t, []string{"how did revenue change"}, retrieval.queries)
	assert.Equal(t, domain.QueryOptions{K: 5, Filter: `doc_type == "pdf"`}, retrieval.options[0])
	assert.Contains(t, out, "[1] report.pdf, page 2")
	assert.Contains(t, out, "Revenue grew by ten percent...")
	assert.Contains(t, out, "[2] notes.docx, page 1")
}

func TestQueryCmd_NoResults(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}})

	out, _, err := execute(t, "query", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestQueryCmd_JSON(t *testing.T) {
	retrieval := &mockRetrieval{context: &domain.RetrievalContext{Context: "Revenue grew", Sources: testSources[:1]}}
	install(t, services{retrieval: retrieval})

	out, _, err := execute(t, "query", "revenue", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"filename": "report.pdf"`)
	assert.Contains(t, out, `"page_number": 2`)
}

func TestQueryCmd_Error(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{err: domain.ErrModelUnavailable}})

	_, _, err := execute(t, "query", "anything")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestAskCmd_Grounded(t *testing.T) {
	chat := &mockChat{answer: &domain.Answer{Response: "It grew.", Sources: testSources, Grounded: true}}
	install(t, services{retrieval: &mockRetrieval{}, chat: chat})

	out, _, err := execute(t, "ask", "did revenue grow?", "--remember", "-k", "2")

	require.NoError(t, err)
	assert.Equal(t, []string{"did revenue grow?"}, chat.asked)
	assert.True(t, chat.askOpts[0].Remember)
	assert.Equal(t, 2, chat.askOpts[0].Query.K)
	assert.Contains(t, out, "It grew.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "report.pdf, page 2")
}

func TestAskCmd_Ungrounded(t *testing.T) {
	chat := &mockChat{answer: &domain.Answer{Response: "Paris."}}
	install(t, services{retrieval: &mockRetrieval{}, chat: chat})

	out, _, err := execute(t, "ask", "capital of France?")

	require.NoError(t, err)
	assert.Contains(t, out, "general knowledge")
	assert.NotContains(t, out, "Sources:")
	assert.False(t, chat.askOpts[0].Remember)
}

func TestAskCmd_NoChatService(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}})

	_, _, err := execute(t, "ask", "anything")

	assert.EqualError(t, err, "chat service not configured")
}

func TestHistoryCmd(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	chat := &mockChat{history: []domain.Message{
		{ID: 1, Content: "hello", Sender: domain.SenderUser, Timestamp: at},
		{ID: 2, Content: "hi", Sender: domain.SenderAssistant, Timestamp: at},
	}}
	install(t, services{retrieval: &mockRetrieval{}, chat: chat})

	out, _, err := execute(t, "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, []int{5}, chat.limits)
	assert.Contains(t, out, "[2026-03-01 09:30] user: hello")
	assert.Contains(t, out, "assistant: hi")
}

func TestHistoryCmd_Empty(t *testing.T) {
	chat := &mockChat{}
	install(t, services{retrieval: &mockRetrieval{}, chat: chat})

	out, _, err := execute(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No messages.")
	assert.Equal(t, []int{20}, chat.limits)
}

func TestDocumentCmds(t *testing.T) {
	docs := &mockDocuments{
		docs: []domain.Document{{
			ID: "doc-1", Filename: "report.pdf", FileType: "pdf", TotalPages: 4,
			Status: domain.DocumentStatusProcessed,
		}},
		pages:   []domain.Page{{PageNumber: 1, Content: "first page"}, {PageNumber: 2, Content: "second page"}},
		content: "first page\n\nsecond page",
	}
	install(t, services{retrieval: &mockRetrieval{}, documents: docs})

	out, _, err := execute(t, "document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf (pdf)")
	assert.Contains(t, out, "Total: 1 documents")

	out, _, err = execute(t, "doc", "get", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   processed")

	_, _, err = execute(t, "doc", "get", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, _, err = execute(t, "doc", "content", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "first page\n\nsecond page")

	out, _, err = execute(t, "doc", "pages", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "--- 2 ---\nsecond page")

	out, _, err = execute(t, "documents", "delete", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, docs.deleted)
	assert.Contains(t, out, "Deleted document: doc-1")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	install(t, services{documents: &mockDocuments{}})

	out, _, err := execute(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested.")
}

func TestDocumentListCmd_JSON(t *testing.T) {
	install(t, services{documents: &mockDocuments{docs: []domain.Document{{ID: "doc-1", Filename: "a.pdf"}}}})

	out, _, err := execute(t, "document", "list", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"filename": "a.pdf"`)
}

func TestDocumentCmd_NotConfigured(t *testing.T) {
	install(t, services{})

	_, _, err := execute(t, "document", "list")

	require.Error(t, err)
}

func TestIndexInfoCmd(t *testing.T) {
	retrieval := &mockRetrieval{stats: domain.IndexStats{
		Entries: 10, Live: 8, Deleted: 2, Dimension: 384, Path: "/data/rag_index",
		Compression: "zstd",
	}}
	install(t, services{retrieval: retrieval})

	out, _, err := execute(t, "index", "info")

	require.NoError(t, err)
	assert.Contains(t, out, "Units:       8")
	assert.Contains(t, out, "Deleted:     2")
	assert.Contains(t, out, "Dimension:   384")
	assert.Contains(t, out, "/data/rag_index")
}

func TestIndexCompactCmd(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{removed: 7}})

	out, _, err := execute(t, "index", "compact")

	require.NoError(t, err)
	assert.Contains(t, out, "Removed 7 deleted units")
}

func TestIndexPushPullCmds(t *testing.T) {
	settings := newMockSettings()
	settings.settings.Index.Dir = "/data/rag_index"
	settings.settings.Mirror.Endpoint = "localhost:9000"
	settings.settings.Mirror.Bucket = "rag"
	mirror := &mockMirror{}
	var got domain.MirrorSettings
	install(t, services{settings: settings, mirrors: func(m domain.MirrorSettings) (driven.SnapshotMirror, error) {
		got = m
		return mirror, nil
	}})

	out, _, err := execute(t, "index", "push")
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed /data/rag_index")

	out, _, err = execute(t, "index", "pull")
	require.NoError(t, err)
	assert.Contains(t, out, "Pulled snapshot into /data/rag_index")

	assert.Equal(t, "rag", got.Bucket)
	assert.Equal(t, []string{"/data/rag_index"}, mirror.pushed)
	assert.Equal(t, []string{"/data/rag_index"}, mirror.pulled)
}

func TestIndexPushCmd_MirrorNotConfigured(t *testing.T) {
	install(t, services{settings: newMockSettings(), mirrors: func(domain.MirrorSettings) (driven.SnapshotMirror, error) {
		return &mockMirror{}, nil
	}})

	_, _, err := execute(t, "index", "push")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror not configured")
}

func TestIndexPullCmd_Error(t *testing.T) {
	settings := newMockSettings()
	settings.settings.Mirror.Endpoint = "localhost:9000"
	settings.settings.Mirror.Bucket = "rag"
	install(t, services{settings: settings, mirrors: func(domain.MirrorSettings) (driven.SnapshotMirror, error) {
		return &mockMirror{err: domain.ErrNotFound}, nil
	}})

	_, _, err := execute(t, "index", "pull")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServeCmd_StopsWhenWatcherFails(t *testing.T) {
	settings := newMockSettings()
	settings.settings.WatchDir = "/inbox"
	watchErr := errors.New("inbox missing")
	var watched string
	install(t, services{
		retrieval: &mockRetrieval{},
		settings:  settings,
		watch: func(_ context.Context, dir string) error {
			watched = dir
			return watchErr
		},
	})

	_, _, err := execute(t, "serve", "--addr", "127.0.0.1:0")

	assert.ErrorIs(t, err, watchErr)
	assert.Equal(t, "/inbox", watched)
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}, settings: newMockSettings()})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, _, err := executeContext(t, ctx, "serve", "--addr", "127.0.0.1:0", "--no-watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Listening on 127.0.0.1:0")
}

func TestWatchCmd(t *testing.T) {
	var watched string
	install(t, services{retrieval: &mockRetrieval{}, watch: func(_ context.Context, dir string) error {
		watched = dir
		return nil
	}})

	out, _, err := execute(t, "watch", "/inbox")

	require.NoError(t, err)
	assert.Equal(t, "/inbox", watched)
	assert.Contains(t, out, "Watching /inbox")
}

func TestWatchCmd_UsesContextOfEachRun(t *testing.T) {
	var got []context.Context
	install(t, services{retrieval: &mockRetrieval{}, watch: func(ctx context.Context, _ string) error {
		got = append(got, ctx)
		return nil
	}})

	_, _, err := execute(t, "watch", "/inbox")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = executeContext(t, ctx, "watch", "/inbox")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.NoError(t, got[0].Err())
	assert.ErrorIs(t, got[1].Err(), context.Canceled)
}

func TestWatchCmd_NoDir(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}, settings: newMockSettings()})

	_, _, err := execute(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no directory")
}

func TestChatCmd_RequiresChatService(t *testing.T) {
	install(t, services{retrieval: &mockRetrieval{}})

	_, _, err := execute(t, "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat unavailable")
}

func TestEnsureRuntime_Bootstrap(t *testing.T) {
	install(t, services{})
	retrieval := &mockRetrieval{stats: domain.IndexStats{Live: 4}}
	closed := false
	calls := 0
	bootstrap = func(context.Context) (*Runtime, error) {
		calls++
		return &Runtime{
			Retrieval: retrieval,
			Chat:      &mockChat{},
			Warnings:  []string{"LLM unavailable"},
			Close:     func() { closed = true },
		}, nil
	}

	out, _, err := execute(t, "index", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Units:       4")

	_, _, err = execute(t, "index", "info")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NotNil(t, chatService)

	shutdown()
	assert.True(t, closed)
}

func TestEnsureRuntime_BootstrapError(t *testing.T) {
	install(t, services{})
	bootstrap = func(context.Context) (*Runtime, error) {
		return nil, domain.ErrModelUnavailable
	}

	_, _, err := execute(t, "query", "anything")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestEnsureRuntime_NotConfigured(t *testing.T) {
	install(t, services{})

	_, _, err := execute(t, "index", "compact")

	assert.EqualError(t, err, "retrieval service not configured")
}
