// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RetrievalService owns the vector index and serialises writers behind a
// read/write lock; ChatService and DocumentService build on it.
package services
