package driven

import (
	"context"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

// Extraction is the result of pulling text out of a source document.
type Extraction struct {
	// Text is the full extracted text, with [Page N] markers between pages.
	Text string

	// PageCount is the number of pages in the source.
	PageCount int
}

// TextExtractor converts one kind of source file into plain text.
type TextExtractor interface {
	// Extract reads the file at path.
	Extract(ctx context.Context, path string) (*Extraction, error)

	// ExtractBytes processes in-memory content, as fetched from a blob
	// store. The filename is used for error messages only.
	ExtractBytes(ctx context.Context, data []byte, filename string) (*Extraction, error)

	// Extensions lists the lower-case file extensions this extractor
	// handles, including the dot (".pdf").
	Extensions() []string
}

// ExtractorRegistry selects a TextExtractor for a given filename.
type ExtractorRegistry interface {
	// ForFile returns the extractor for the file's extension.
	// Returns domain.ErrUnsupportedFile when none is registered.
	ForFile(filename string) (TextExtractor, error)
}

// MetadataExtractor derives structured logistics metadata from document
// text. Implementations must never fail: when structured extraction is
// impossible they fall back to deterministic heuristics.
type MetadataExtractor interface {
	// ExtractMetadata inspects the text and filename. The useLLM flag
	// requests model-backed extraction when available.
	ExtractMetadata(ctx context.Context, text, filename string, useLLM bool) domain.Metadata
}
