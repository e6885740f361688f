package driving

import (
	"context"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

// Asker answers natural-language questions over the ingested corpus.
type Asker interface {
	// Ask runs the retrieval pipeline for one question. It never returns
	// an error for degraded model calls; the answer text explains those.
	// Errors are reserved for infrastructure failures that prevent any
	// answer from being formed.
	Ask(ctx context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error)
}
