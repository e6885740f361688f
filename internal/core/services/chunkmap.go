package services

import (
	"context"
	"sort"
	"sync"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/logger"
)

// ChunkMap resolves vector index offsets back to durable chunk ids.
//
// The vector index only knows positions. The row store records which
// position each chunk's embedding landed at. Sorting those positions
// ascending and zipping them against 0..N-1 reproduces the insertion
// order, so map entry i points at the chunk whose embedding sits at
// offset i.
type ChunkMap struct {
	mu       sync.RWMutex
	store    driven.DocumentStore
	byOffset []int64
	degraded bool
}

// NewChunkMap creates an empty map backed by the given store.
// Call Refresh (or let Lookup refresh lazily) before resolving offsets.
func NewChunkMap(store driven.DocumentStore) *ChunkMap {
	return &ChunkMap{store: store}
}

// Refresh rebuilds the map from the row store. A store failure marks the
// map degraded until a later rebuild succeeds; resolvers switch to
// best-effort placeholder identities while that flag is set.
func (m *ChunkMap) Refresh(ctx context.Context) error {
	pairs, err := m.store.ListEmbeddingPairs(ctx)
	if err != nil {
		m.mu.Lock()
		m.degraded = true
		m.mu.Unlock()
		return err
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].EmbeddingID < pairs[j].EmbeddingID
	})

	byOffset := make([]int64, len(pairs))
	for i, p := range pairs {
		byOffset[i] = p.ChunkID
	}

	m.mu.Lock()
	m.byOffset = byOffset
	m.degraded = false
	m.mu.Unlock()

	logger.Debug("Chunk map refreshed: %d entries", len(byOffset))
	return nil
}

// Lookup resolves a vector offset to a chunk id. When the offset is not
// covered by the current snapshot the map refreshes once, catching up
// with chunks ingested since the last rebuild. The second return value
// is false when the offset is still unmapped after the refresh.
func (m *ChunkMap) Lookup(ctx context.Context, offset int) (int64, bool) {
	if offset < 0 {
		return 0, false
	}

	m.mu.RLock()
	if offset < len(m.byOffset) {
		id := m.byOffset[offset]
		m.mu.RUnlock()
		return id, true
	}
	m.mu.RUnlock()

	if err := m.Refresh(ctx); err != nil {
		logger.Warn("Chunk map refresh failed: %v", err)
		return 0, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset < len(m.byOffset) {
		return m.byOffset[offset], true
	}
	return 0, false
}

// Degraded reports whether the last rebuild attempt failed against the
// row store.
func (m *ChunkMap) Degraded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.degraded
}

// Size returns the number of mapped offsets.
func (m *ChunkMap) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byOffset)
}
