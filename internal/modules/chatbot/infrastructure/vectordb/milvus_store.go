package vectordb

import (
	"context"
	"encoding/json"
	"fmt"

	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusStore 基于 milvus 的向量库实现
type MilvusStore struct {
	cli        mclient.Client
	collection string
	dim        int
}

func NewMilvusStore(cli mclient.Client, collection string, dim int) *MilvusStore {
	return &MilvusStore{cli: cli, collection: collection, dim: dim}
}

var _ repository.VectorStore = (*MilvusStore)(nil)

func (s *MilvusStore) Upsert(ctx context.Context, items []repository.VectorUpsertItem) error {
	if len(items) == 0 {
		return nil
	}

	n := len(items)
	ids := make([]string, n)
	vectors := make([][]float32, n)
	docIDs := make([]string, n)
	chunkIdx := make([]int64, n)
	seqs := make([]int64, n)
	levels := make([]int64, n)
	contents := make([]string, n)
	metas := make([][]byte, n)

	for i, it := range items {
		if len(it.Vector) != s.dim {
			return fmt.Errorf("milvus upsert: dim %d, want %d", len(it.Vector), s.dim)
		}
		ids[i] = it.ID
		vectors[i] = toFloat32(it.Vector)
		docIDs[i] = it.DocID
		chunkIdx[i] = int64(it.ChunkIndex)
		seqs[i] = int64(i)
		levels[i] = int64(it.MinLevel)
		contents[i] = it.Content

		meta := it.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("milvus upsert: marshal metadata: %w", err)
		}
		metas[i] = b
	}

	_, err := s.cli.Upsert(ctx, s.collection, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
		entity.NewColumnVarChar("document_id", docIDs),
		entity.NewColumnInt64("chunk_index", chunkIdx),
		entity.NewColumnInt64("seq", seqs),
		entity.NewColumnInt64("min_level", levels),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnJSONBytes("metadata", metas),
	)
	if err != nil {
		return fmt.Errorf("milvus upsert: %w", err)
	}
	return s.cli.Flush(ctx, s.collection, false)
}

func (s *MilvusStore) Search(ctx context.Context, vector []float64, topK int, maxLevel int) ([]repository.VectorSearchHit, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("milvus search: dim %d, want %d", len(vector), s.dim)
	}
	if topK <= 0 {
		topK = 10
	}

	expr := ""
	if maxLevel >= 0 {
		expr = fmt.Sprintf("min_level <= %d", maxLevel)
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("milvus search param: %w", err)
	}

	results, err := s.cli.Search(ctx, s.collection, nil, expr,
		[]string{"document_id", "chunk_index", "content", "metadata"},
		[]entity.Vector{entity.FloatVector(toFloat32(vector))},
		"vector", entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	var hits []repository.VectorSearchHit
	for _, res := range results {
		parsed, err := parseSearchResult(res)
		if err != nil {
			zlog.Warn("parse milvus result failed", zap.Error(err))
			continue
		}
		hits = append(hits, parsed...)
	}
	return hits, nil
}

func (s *MilvusStore) DeleteByDocument(ctx context.Context, docID string) error {
	expr := fmt.Sprintf(`document_id == "%s"`, docID)
	if err := s.cli.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete by document: %w", err)
	}
	return s.cli.Flush(ctx, s.collection, false)
}

func parseSearchResult(res mclient.SearchResult) ([]repository.VectorSearchHit, error) {
	idCol, ok := res.IDs.(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("unexpected id column type %T", res.IDs)
	}

	docCol := columnByName(res.Fields, "document_id")
	idxCol := columnByName(res.Fields, "chunk_index")
	contentCol := columnByName(res.Fields, "content")
	metaCol := columnByName(res.Fields, "metadata")

	hits := make([]repository.VectorSearchHit, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		id, err := idCol.ValueByIdx(i)
		if err != nil {
			return nil, err
		}
		hit := repository.VectorSearchHit{ID: id, Score: float64(res.Scores[i])}

		if col, ok := docCol.(*entity.ColumnVarChar); ok {
			hit.DocID, _ = col.ValueByIdx(i)
		}
		if col, ok := idxCol.(*entity.ColumnInt64); ok {
			v, _ := col.ValueByIdx(i)
			hit.ChunkIndex = int(v)
		}
		if col, ok := contentCol.(*entity.ColumnVarChar); ok {
			hit.Content, _ = col.ValueByIdx(i)
		}
		if col, ok := metaCol.(*entity.ColumnJSONBytes); ok {
			if raw, err := col.ValueByIdx(i); err == nil && len(raw) > 0 {
				_ = json.Unmarshal(raw, &hit.Metadata)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func columnByName(cols []entity.Column, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
