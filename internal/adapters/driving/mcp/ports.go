package mcp

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ingests files and retrieves context.
	Retrieval driving.RetrievalService

	// Chat generates answers. Optional.
	Chat driving.ChatService

	// Document exposes ingested documents. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
