// Package memory provides in-memory driven adapters, used in tests and
// as fallbacks when persistent storage is unavailable.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[int64]domain.Chunk
	nextID    int64
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[int64]domain.Chunk),
		nextID:    1,
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// UpdateStatus moves a document to a new processing status.
func (s *DocumentStore) UpdateStatus(_ context.Context, docID string, status domain.ProcessingStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	if status == domain.StatusFailed {
		doc.ErrorMessage = message
	}
	s.documents[docID] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// InsertChunks stores all chunks for one document and assigns ids.
func (s *DocumentStore) InsertChunks(_ context.Context, chunks []domain.Chunk) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		c.ID = s.nextID
		s.nextID++
		s.chunks[c.ID] = c
		ids[i] = c.ID
	}
	return ids, nil
}

// GetChunk retrieves a chunk by its id.
func (s *DocumentStore) GetChunk(_ context.Context, chunkID int64) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// ListDocuments returns up to limit documents, most recent first.
func (s *DocumentStore) ListDocuments(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, docID)
	for id, c := range s.chunks {
		if c.DocumentID == docID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// ListEmbeddingPairs returns every (embedding id, chunk id) pair for
// indexed chunks.
func (s *DocumentStore) ListEmbeddingPairs(_ context.Context) ([]driven.EmbeddingPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pairs []driven.EmbeddingPair
	for id, c := range s.chunks {
		if c.EmbeddingID == nil {
			continue
		}
		pairs = append(pairs, driven.EmbeddingPair{EmbeddingID: *c.EmbeddingID, ChunkID: id})
	}
	return pairs, nil
}

// Stats reports corpus-level counts.
func (s *DocumentStore) Stats(_ context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make(map[string]struct{})
	for _, d := range s.documents {
		if d.Metadata.CustomerName != "" {
			customers[d.Metadata.CustomerName] = struct{}{}
		}
	}
	return &domain.Stats{
		TotalDocuments:  len(s.documents),
		TotalChunks:     len(s.chunks),
		UniqueCustomers: len(customers),
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *DocumentStore) Close() error {
	return nil
}
