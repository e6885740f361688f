package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a source yielded no extractable text.
	// Ingestion treats this as fatal for the document.
	ErrEmptyDocument = errors.New("no text content extracted")

	// ErrDimensionMismatch indicates a vector does not match the index
	// dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and retrieval both require embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrBlobStoreUnavailable indicates the blob store is not configured.
	// Remote ingestion fails without it; local ingestion does not need it.
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")

	// ErrUnsupportedFile indicates no extractor handles the file type.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
