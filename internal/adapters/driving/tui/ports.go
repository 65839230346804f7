// Package tui provides an interactive terminal chat over the ingested documents.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Chat answers questions and keeps the conversation history.
	Chat driving.ChatService

	// Retrieval serves the retrieve-only mode.
	Retrieval driving.RetrievalService

	// Document browses ingested documents. Optional.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	chat driving.ChatService,
	retrieval driving.RetrievalService,
	document driving.DocumentService,
) *Ports {
	return &Ports{
		Chat:      chat,
		Retrieval: retrieval,
		Document:  document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
