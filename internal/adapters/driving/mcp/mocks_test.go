package mcp

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	context   *domain.RetrievalContext
	result    *domain.IngestResult
	err       error
	lastQuery string
	lastOpts  domain.QueryOptions
	lastReq   domain.IngestRequest
}

func (m *mockRetrievalService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockRetrievalService) Query(
	_ context.Context,
	text string,
	opts domain.QueryOptions,
) (*domain.RetrievalContext, error) {
	m.lastQuery = text
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.context == nil {
		return domain.BuildContext(nil), nil
	}
	return m.context, nil
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	_ string,
	_ domain.QueryOptions,
) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrievalService) DeleteDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRetrievalService) Compact(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockRetrievalService) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.Answer
	err     error
	lastOpt domain.AskOptions
}

func (m *mockChatService) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastOpt = opts
	return m.answer, m.err
}

func (m *mockChatService) History(_ context.Context, _ int) ([]domain.Message, error) {
	return nil, m.err
}

func (m *mockChatService) SaveMessage(_ context.Context, msg domain.Message) (*domain.Message, error) {
	return &msg, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	pages     []domain.Page
	content   string
	err       error
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Pages(_ context.Context, _ string) ([]domain.Page, error) {
	return m.pages, m.err
}

func (m *mockDocumentService) Content(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}
