package mcp

import (
	"context"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query  string `json:"query" jsonschema:"the question to find grounding passages for"`
	K      int    `json:"k,omitempty" jsonschema:"number of passages to return (default 3)"`
	Filter string `json:"filter,omitempty" jsonschema:"optional metadata filter, e.g. doc_type == \"pdf\" && page > 2"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context string          `json:"context"`
	Sources []domain.Source `json:"sources"`
	Count   int             `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to ground the answer on (default 3)"`
	Remember bool   `json:"remember,omitempty" jsonschema:"store the exchange in the chat history"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Response string          `json:"response"`
	Sources  []domain.Source `json:"sources"`
	Grounded bool            `json:"grounded"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Path       string `json:"path" jsonschema:"absolute path of a PDF or Word file on this machine"`
	FileType   string `json:"file_type,omitempty" jsonschema:"pdf or docx; defaults to the file extension"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"optional identifier; a UUID is generated otherwise"`
}

// DocumentOutput describes one ingested document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	TotalPages int    `json:"total_pages"`
	CreatedAt  string `json:"created_at"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the document to delete"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Deleted string `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve the indexed passages most similar to a question, with citations",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Add a local PDF or Word file to the index",
	}, s.handleIngest)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from the indexed documents using the configured LLM",
		}, s.handleAsk)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List ingested documents",
		}, s.handleListDocuments)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "delete_document",
			Description: "Remove a document and its passages from the index",
		}, s.handleDeleteDocument)
	}
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	rc, err := s.ports.Retrieval.Query(ctx, input.Query, domain.QueryOptions{K: input.K, Filter: input.Filter})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	sources := rc.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return nil, RetrieveOutput{
		Context: rc.Context,
		Sources: sources,
		Count:   len(sources),
	}, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, errChatUnavailable
	}

	answer, err := s.ports.Chat.Ask(ctx, input.Question, domain.AskOptions{
		Query:    domain.QueryOptions{K: input.K},
		Remember: input.Remember,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Response: answer.Response,
		Sources:  answer.Sources,
		Grounded: answer.Grounded,
	}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	res, err := s.ports.Retrieval.Ingest(ctx, domain.IngestRequest{
		Path:       input.Path,
		Filename:   filepath.Base(input.Path),
		FileType:   input.FileType,
		DocumentID: input.DocumentID,
	})
	if err != nil {
		return nil, domain.IngestResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	out := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		out.Documents[i] = toDocumentOutput(docs[i])
	}
	return nil, out, nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if err := s.ports.Document.Delete(ctx, input.DocumentID); err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Deleted: input.DocumentID}, nil
}

func toDocumentOutput(doc domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
		TotalPages: doc.TotalPages,
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
