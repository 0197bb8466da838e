package rerank

import (
	"context"
	"sort"

	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
)

// Scorer 对 (query, passage) 打相关性分, 分数越大越相关
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Reranker 对第一轮检索结果做精排, 取前 topN 条.
// 打分失败时退回第一轮顺序, 不让精排故障中断检索链路.
type Reranker struct {
	scorer Scorer
	topN   int
}

func NewReranker(scorer Scorer, topN int) *Reranker {
	if topN <= 0 {
		topN = 3
	}
	return &Reranker{scorer: scorer, topN: topN}
}

// Rerank 返回按精排分数降序的前 topN 命中.
// 分数相同的命中保持第一轮检索的相对顺序.
func (r *Reranker) Rerank(ctx context.Context, query string, hits []repository.VectorSearchHit) []repository.VectorSearchHit {
	if len(hits) == 0 {
		return hits
	}

	topN := r.topN
	if topN > len(hits) {
		topN = len(hits)
	}

	if r.scorer == nil {
		return hits[:topN]
	}

	passages := make([]string, len(hits))
	for i, h := range hits {
		passages[i] = h.Content
	}

	scores, err := r.scorer.Score(ctx, query, passages)
	if err != nil || len(scores) != len(hits) {
		zlog.Warn("rerank scoring failed, falling back to retrieval order",
			zap.Int("hits", len(hits)), zap.Error(err))
		return hits[:topN]
	}

	type scored struct {
		hit   repository.VectorSearchHit
		score float64
		rank  int // 第一轮检索名次, 同分时的次序键
	}
	items := make([]scored, len(hits))
	for i := range hits {
		items[i] = scored{hit: hits[i], score: scores[i], rank: i}
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].score != items[b].score {
			return items[a].score > items[b].score
		}
		return items[a].rank < items[b].rank
	})

	out := make([]repository.VectorSearchHit, topN)
	for i := 0; i < topN; i++ {
		out[i] = items[i].hit
		out[i].Score = items[i].score
	}
	return out
}
