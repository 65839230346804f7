// Package domain defines the core business entities for ragcore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TextUnit: A chunk of document text with provenance metadata
//   - Document: A record of one ingested file
//   - Page: The stored text of one unit of an ingested file
//   - SearchResult: A TextUnit ranked by distance to a query
//   - RetrievalContext: The context string and citations for a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
