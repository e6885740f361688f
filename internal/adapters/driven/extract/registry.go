// Package extract selects text extractors by file extension.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]driven.TextExtractor
}

// NewRegistry builds a registry from the given extractors. Later
// extractors win on extension conflicts.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	byExt := make(map[string]driven.TextExtractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			byExt[strings.ToLower(ext)] = e
		}
	}
	return &Registry{byExt: byExt}
}

// ForFile returns the extractor for the file's extension.
func (r *Registry) ForFile(filename string) (driven.TextExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filename)
	}
	return e, nil
}

// Extensions lists every registered extension.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
