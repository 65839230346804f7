// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for retrieval to function:
//
//   - Chunker: Splits PDF and Word files into text units
//   - Embedder: Maps text to dense vectors. Unreachable at startup means ErrModelUnavailable.
//   - VectorIndex: Exact nearest-neighbour search with durable persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DocumentStore: documents/document_pages rows. Retrieval works without it.
//   - MessageStore: Chat history.
//   - AnswerGenerator: Language model. Without it only retrieval is available.
//   - SnapshotMirror: Off-site copy of the persisted index.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
