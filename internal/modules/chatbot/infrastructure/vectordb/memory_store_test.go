package vectordb

import (
	"context"
	"testing"

	"alphabot/internal/modules/chatbot/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, docID string, idx int, vec []float64) repository.VectorUpsertItem {
	return repository.VectorUpsertItem{
		ID: id, DocID: docID, ChunkIndex: idx, Vector: vec, Content: "content-" + id,
	}
}

func TestUpsertRejectsDimMismatch(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("a", "d1", 0, []float64{1, 0, 0}),
		item("b", "d1", 1, []float64{1, 0}),
	})
	require.Error(t, err)
	// 整批失败, 第一条也不应写入
	assert.Equal(t, 0, s.Count())
}

func TestSearchCosineDescending(t *testing.T) {
	s := NewMemoryStore(3)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("far", "d1", 0, []float64{0, 1, 0}),
		item("near", "d1", 1, []float64{1, 0.1, 0}),
		item("exact", "d1", 2, []float64{1, 0, 0}),
	}))

	hits, err := s.Search(context.Background(), []float64{1, 0, 0}, 3, -1)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].ID)
	assert.Equal(t, "near", hits[1].ID)
	assert.Equal(t, "far", hits[2].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchTieBreakByInsertionOrder(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("first", "d1", 0, []float64{1, 0}),
		item("second", "d2", 0, []float64{1, 0}),
		item("third", "d3", 0, []float64{1, 0}),
	}))

	hits, err := s.Search(context.Background(), []float64{1, 0}, 3, -1)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "second", hits[1].ID)
	assert.Equal(t, "third", hits[2].ID)
}

func TestSearchLevelFilter(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		{ID: "pub", DocID: "d1", Vector: []float64{1, 0}, MinLevel: 0, Content: "public"},
		{ID: "vip", DocID: "d2", Vector: []float64{1, 0}, MinLevel: 3, Content: "vip only"},
	}))

	hits, err := s.Search(context.Background(), []float64{1, 0}, 10, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "pub", hits[0].ID)
}

func TestSearchTopKLimit(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("a", "d1", 0, []float64{1, 0}),
		item("b", "d1", 1, []float64{0.9, 0.1}),
		item("c", "d1", 2, []float64{0.8, 0.2}),
	}))

	hits, err := s.Search(context.Background(), []float64{1, 0}, 2, -1)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestDeleteByDocument(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("a", "keep", 0, []float64{1, 0}),
		item("b", "drop", 0, []float64{0, 1}),
		item("c", "drop", 1, []float64{0, 1}),
	}))

	require.NoError(t, s.DeleteByDocument(context.Background(), "drop"))
	assert.Equal(t, 1, s.Count())

	hits, err := s.Search(context.Background(), []float64{0, 1}, 10, -1)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "drop", h.DocID)
	}
}

func TestUpsertOverwritesSameID(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		item("a", "d1", 0, []float64{1, 0}),
	}))
	require.NoError(t, s.Upsert(context.Background(), []repository.VectorUpsertItem{
		{ID: "a", DocID: "d1", ChunkIndex: 0, Vector: []float64{0, 1}, Content: "updated"},
	}))
	assert.Equal(t, 1, s.Count())

	hits, err := s.Search(context.Background(), []float64{0, 1}, 1, -1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "updated", hits[0].Content)
}
