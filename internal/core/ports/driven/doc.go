// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: document and chunk persistence (the row store)
//   - EmbeddingService: text to vector
//   - TextExtractor / ExtractorRegistry: source file to plain text
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: answer synthesis and structured metadata extraction.
//     Without it, answers degrade and metadata falls back to the
//     deterministic extractor.
//   - BlobStore: durable copies of source files. Without it, local
//     ingestion keeps only the local path and remote ingestion is
//     unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
