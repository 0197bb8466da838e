package repository

import "context"

// VectorUpsertItem 待写入向量库的一条切片记录
type VectorUpsertItem struct {
	ID         string
	Vector     []float64
	DocID      string
	ChunkIndex int
	MinLevel   int
	Content    string
	Metadata   map[string]any
}

// VectorSearchHit 向量检索命中, Score 为余弦相似度
type VectorSearchHit struct {
	ID         string
	DocID      string
	ChunkIndex int
	Content    string
	Score      float64
	Metadata   map[string]any
}

// VectorStore 向量库端口
//
// Upsert 要求整批成功或整批失败, 不允许写入部分向量.
// Search 结果按相似度降序, 相同分数按写入顺序返回.
type VectorStore interface {
	Upsert(ctx context.Context, items []VectorUpsertItem) error
	Search(ctx context.Context, vector []float64, topK int, maxLevel int) ([]VectorSearchHit, error)
	DeleteByDocument(ctx context.Context, docID string) error
}
