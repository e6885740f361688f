// Package pdf extracts text from PDF documents. Text extraction shells
// out to pdftotext (poppler-utils); page counts come from pdfcpu so they
// are correct even when a page has no extractable text.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// CommandRunner abstracts external command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor converts PDF files to plain text.
type Extractor struct {
	runner CommandRunner
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner, for tests.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) { e.runner = r }
}

// New creates a new PDF extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts the PDF at path to text with [Page N] markers.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	raw, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w", path, err)
	}

	text, markedPages := markPages(string(raw))

	pageCount, err := e.pageCountFile(path)
	if err != nil {
		logger.Debug("Page count via pdfcpu failed for %s: %v", path, err)
		pageCount = markedPages
	}

	return &driven.Extraction{Text: text, PageCount: pageCount}, nil
}

// ExtractBytes processes an in-memory PDF by staging it to a temp file,
// since pdftotext only reads from disk.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, filename string) (*driven.Extraction, error) {
	tmp, err := os.CreateTemp("", "cargolens-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("staging %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("staging %s: %w", filename, err)
	}

	extraction, err := e.Extract(ctx, tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filename, err)
	}

	// Prefer counting pages from the original bytes.
	if count, err := api.PageCount(bytes.NewReader(data), nil); err == nil {
		extraction.PageCount = count
	}
	return extraction, nil
}

// Extensions lists the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// pageCountFile reads the page count from the PDF structure.
func (e *Extractor) pageCountFile(path string) (int, error) {
	return api.PageCountFile(path)
}

// markPages converts pdftotext form feed separators into [Page N] markers
// and reports how many pages carried text.
func markPages(raw string) (string, int) {
	pages := strings.Split(raw, "\f")
	// pdftotext emits a trailing form feed after the last page.
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if len(pages) == 0 {
		return "", 0
	}

	var b strings.Builder
	for i, page := range pages {
		fmt.Fprintf(&b, "[Page %d] %s\n", i+1, strings.TrimSpace(page))
	}
	return b.String(), len(pages)
}
