package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", Filename: "invoice.pdf", Status: domain.StatusProcessing}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", got.Filename)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_UpdateStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, store.UpdateStatus(ctx, "doc-1", domain.StatusFailed, "boom"))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)

	assert.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.StatusCompleted, ""), domain.ErrNotFound)
}

func TestDocumentStore_InsertChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	ids, err := store.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", Position: 0, Text: "first"},
		{DocumentID: "doc-1", Position: 1, Text: "second"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0]+1, ids[1])

	chunk, err := store.GetChunk(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Text)
	assert.Equal(t, 1, chunk.Position)
}

func TestDocumentStore_ListDocuments_Ordering(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	docs, err := store.ListDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}

func TestDocumentStore_DeleteCascades(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	ids, err := store.InsertChunks(ctx, []domain.Chunk{{DocumentID: "doc-1", Text: "x"}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err = store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListEmbeddingPairs(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	e0, e1 := int64(0), int64(1)
	ids, err := store.InsertChunks(ctx, []domain.Chunk{
		{DocumentID: "doc-1", EmbeddingID: &e0},
		{DocumentID: "doc-1", EmbeddingID: &e1},
		{DocumentID: "doc-1"}, // never indexed
	})
	require.NoError(t, err)

	pairs, err := store.ListEmbeddingPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	byEmbedding := make(map[int64]int64)
	for _, p := range pairs {
		byEmbedding[p.EmbeddingID] = p.ChunkID
	}
	assert.Equal(t, ids[0], byEmbedding[0])
	assert.Equal(t, ids[1], byEmbedding[1])
}

func TestDocumentStore_Stats(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "a", Metadata: domain.Metadata{CustomerName: "Acme"},
	}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "b", Metadata: domain.Metadata{CustomerName: "Acme"},
	}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "c"}))
	_, err := store.InsertChunks(ctx, []domain.Chunk{{DocumentID: "a"}, {DocumentID: "b"}})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 1, stats.UniqueCustomers)
}
