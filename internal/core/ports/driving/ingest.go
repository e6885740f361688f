package driving

import (
	"context"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

// IngestOptions configures a single ingestion run.
type IngestOptions struct {
	// UseLLMMetadata requests model-backed metadata extraction. The
	// deterministic extractor is used as fallback either way.
	UseLLMMetadata bool
}

// Ingestor orchestrates document ingestion end to end.
type Ingestor interface {
	// IngestFile processes one local file and returns its document id.
	IngestFile(ctx context.Context, path string, opts IngestOptions) (string, error)

	// IngestDirectory processes every supported file in a directory,
	// bounded by the configured concurrency limit.
	IngestDirectory(ctx context.Context, dir string, opts IngestOptions) (*domain.IngestReport, error)

	// IngestRemote lists the blob store under the configured prefix and
	// processes every object found there.
	IngestRemote(ctx context.Context, prefix string, opts IngestOptions) (*domain.IngestReport, error)

	// Delete removes a document and its chunks from the row store.
	Delete(ctx context.Context, docID string) error

	// List returns up to limit recent documents.
	List(ctx context.Context, limit int) ([]domain.Document, error)

	// Stats reports corpus counts.
	Stats(ctx context.Context) (*domain.Stats, error)
}
