package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"alphabot/internal/modules/chatbot/domain/repository"
)

// MemoryStore 内存向量库, 用于本地开发与测试.
// 语义与 milvus 实现对齐: 余弦相似度降序, 同分按写入顺序.
type MemoryStore struct {
	mu   sync.RWMutex
	dim  int
	seq  int64
	rows map[string]*memoryRow
}

type memoryRow struct {
	item repository.VectorUpsertItem
	seq  int64
}

func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{dim: dim, rows: make(map[string]*memoryRow)}
}

var _ repository.VectorStore = (*MemoryStore)(nil)

// Upsert 整批校验后一次性写入, 任一条维度不符则整批失败
func (s *MemoryStore) Upsert(_ context.Context, items []repository.VectorUpsertItem) error {
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("vector upsert: empty id")
		}
		if len(it.Vector) != s.dim {
			return fmt.Errorf("vector upsert: dim %d, want %d", len(it.Vector), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if row, ok := s.rows[it.ID]; ok {
			row.item = it
			continue
		}
		s.seq++
		s.rows[it.ID] = &memoryRow{item: it, seq: s.seq}
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float64, topK int, maxLevel int) ([]repository.VectorSearchHit, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("vector search: dim %d, want %d", len(vector), s.dim)
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	type cand struct {
		hit repository.VectorSearchHit
		seq int64
	}
	cands := make([]cand, 0, len(s.rows))
	for _, row := range s.rows {
		if maxLevel >= 0 && row.item.MinLevel > maxLevel {
			continue
		}
		cands = append(cands, cand{
			hit: repository.VectorSearchHit{
				ID:         row.item.ID,
				DocID:      row.item.DocID,
				ChunkIndex: row.item.ChunkIndex,
				Content:    row.item.Content,
				Score:      cosine(vector, row.item.Vector),
				Metadata:   row.item.Metadata,
			},
			seq: row.seq,
		})
	}
	s.mu.RUnlock()

	sort.Slice(cands, func(a, b int) bool {
		if cands[a].hit.Score != cands[b].hit.Score {
			return cands[a].hit.Score > cands[b].hit.Score
		}
		return cands[a].seq < cands[b].seq
	})

	if topK > len(cands) {
		topK = len(cands)
	}
	out := make([]repository.VectorSearchHit, topK)
	for i := 0; i < topK; i++ {
		out[i] = cands[i].hit
	}
	return out, nil
}

func (s *MemoryStore) DeleteByDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.item.DocID == docID {
			delete(s.rows, id)
		}
	}
	return nil
}

// Count 当前记录数, 仅测试使用
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
