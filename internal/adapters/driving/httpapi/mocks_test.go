package httpapi

import (
	"context"
	"os"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type mockRetrieval struct {
	context  *domain.RetrievalContext
	stats    domain.IndexStats
	err      error
	lastOpts domain.QueryOptions
	lastReq  domain.IngestRequest
	uploaded string
	deleted  string
}

func (m *mockRetrieval) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.lastReq = req
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, err
	}
	m.uploaded = string(data)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{
		Status:         "success",
		Message:        "Successfully processed document: " + req.Filename,
		UnitsProcessed: 2,
		DocumentID:     "doc-1",
	}, nil
}

func (m *mockRetrieval) Query(_ context.Context, _ string, opts domain.QueryOptions) (*domain.RetrievalContext, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.context == nil {
		return domain.BuildContext(nil), nil
	}
	return m.context, nil
}

func (m *mockRetrieval) Search(context.Context, string, domain.QueryOptions) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrieval) DeleteDocument(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockRetrieval) Compact(context.Context) (int, error) { return 0, m.err }

func (m *mockRetrieval) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

type mockChat struct {
	answer   *domain.Answer
	messages []domain.Message
	err      error
	lastOpts domain.AskOptions
	saved    domain.Message
	limit    int
}

func (m *mockChat) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

func (m *mockChat) History(_ context.Context, limit int) ([]domain.Message, error) {
	m.limit = limit
	return m.messages, m.err
}

func (m *mockChat) SaveMessage(_ context.Context, msg domain.Message) (*domain.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = msg
	msg.ID = 7
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &msg, nil
}

type mockDocuments struct {
	documents []domain.Document
	pages     []domain.Page
	err       error
	deleted   string
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Pages(context.Context, string) ([]domain.Page, error) {
	return m.pages, m.err
}

func (m *mockDocuments) Content(context.Context, string) (string, error) {
	return "", m.err
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}
