package driven

import (
	"context"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

// EmbeddingPair links a chunk's vector index position to its durable
// chunk identifier. Used to rebuild the identity map on load.
type EmbeddingPair struct {
	// EmbeddingID is the chunk's position in the vector index.
	EmbeddingID int64

	// ChunkID is the row store identifier.
	ChunkID int64
}

// DocumentStore is the row store for documents and chunks.
//
// Implementations must support concurrent callers. Chunk batch inserts are
// transactional per document: all rows commit or none do. Cross-document
// transactions are never required.
type DocumentStore interface {
	// SaveDocument inserts or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// UpdateStatus moves a document to a new processing status.
	// The message is stored only for failed status.
	UpdateStatus(ctx context.Context, docID string, status domain.ProcessingStatus, message string) error

	// GetDocument retrieves a document by id.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, docID string) (*domain.Document, error)

	// InsertChunks atomically inserts all chunks for one document and
	// returns the exact list of assigned chunk ids, in input order.
	InsertChunks(ctx context.Context, chunks []domain.Chunk) ([]int64, error)

	// GetChunk retrieves a chunk by its durable id.
	// Returns domain.ErrNotFound when absent.
	GetChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error)

	// ListDocuments returns up to limit documents, most recent first.
	ListDocuments(ctx context.Context, limit int) ([]domain.Document, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, docID string) error

	// ListEmbeddingPairs returns every (embedding id, chunk id) pair for
	// chunks that have been indexed, in no particular order.
	ListEmbeddingPairs(ctx context.Context) ([]EmbeddingPair, error)

	// Stats reports corpus-level counts.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Close releases resources.
	Close() error
}
