// Package domain defines the core business entities for CargoLens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested logistics document with extracted metadata
//   - Chunk: A bounded, embeddable substring of a document's text
//   - RetrievedChunk: A chunk scored against a query
//   - Answer: A synthesised, cited answer to a user question
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
