// Package mcp provides an MCP (Model Context Protocol) server adapter for ragcore.
// It lets AI assistants retrieve grounding context from the local index and
// manage the documents in it.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errChatUnavailable is returned by the ask tool when no chat service is wired.
var errChatUnavailable = errors.New("mcp: answer generation is not configured")
