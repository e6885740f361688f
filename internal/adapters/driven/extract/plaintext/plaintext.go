// Package plaintext extracts text from plain text files.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return e.ExtractBytes(ctx, data, path)
}

// ExtractBytes processes in-memory content.
func (e *Extractor) ExtractBytes(_ context.Context, data []byte, _ string) (*driven.Extraction, error) {
	return &driven.Extraction{Text: string(data), PageCount: 1}, nil
}

// Extensions lists the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".md", ".text"}
}
