package pipeline

import (
	"context"
	"fmt"
	"strings"

	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/rerank"
	"alphabot/pkg/zlog"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// QueryRequest 一次知识检索请求
type QueryRequest struct {
	Query    string
	MaxLevel int // 用户等级, 只返回等级可见的切片
	TopK     int // 第一轮召回数量, 0 取配置默认
}

// QueryResult 精排后的检索结果
type QueryResult struct {
	Hits []repository.VectorSearchHit
}

// Passages 取出命中文本, 供生成器拼上下文
func (r *QueryResult) Passages() []string {
	out := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		out[i] = h.Content
	}
	return out
}

type queryState struct {
	Req  *QueryRequest
	Vec  []float64
	Hits []repository.VectorSearchHit
	Err  error
}

// QueryPipeline 检索链路: 向量化查询, 召回, 精排
type QueryPipeline struct {
	embedder einoembedding.Embedder
	vectors  repository.VectorStore
	reranker *rerank.Reranker
	topK     int
	runner   queryRunner
}

func NewQueryPipeline(ctx context.Context, embedder einoembedding.Embedder, vectors repository.VectorStore, reranker *rerank.Reranker, topK int) (*QueryPipeline, error) {
	if topK <= 0 {
		topK = 10
	}
	p := &QueryPipeline{embedder: embedder, vectors: vectors, reranker: reranker, topK: topK}
	runner, err := buildQueryGraph(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("compile query graph: %w", err)
	}
	p.runner = runner
	return p, nil
}

// Execute 执行检索
func (p *QueryPipeline) Execute(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query: empty text")
	}
	return p.runner.Invoke(ctx, req)
}

func (p *QueryPipeline) embedQueryNode(ctx context.Context, st *queryState) (*queryState, error) {
	if st.Err != nil {
		return st, nil
	}
	vecs, err := p.embedder.EmbedStrings(ctx, []string{st.Req.Query})
	if err != nil {
		st.Err = err
		return st, nil
	}
	if len(vecs) != 1 {
		st.Err = fmt.Errorf("embedder returned %d vectors for query", len(vecs))
		return st, nil
	}
	st.Vec = vecs[0]
	return st, nil
}

func (p *QueryPipeline) retrieveNode(ctx context.Context, st *queryState) (*queryState, error) {
	if st.Err != nil {
		return st, nil
	}
	topK := st.Req.TopK
	if topK <= 0 {
		topK = p.topK
	}
	hits, err := p.vectors.Search(ctx, st.Vec, topK, st.Req.MaxLevel)
	if err != nil {
		st.Err = fmt.Errorf("vector search: %w", err)
		return st, nil
	}
	st.Hits = hits
	zlog.Debug("retrieval done",
		zap.Int("topK", topK),
		zap.Int("hits", len(hits)))
	return st, nil
}

func (p *QueryPipeline) rerankNode(ctx context.Context, st *queryState) (*queryState, error) {
	if st.Err != nil {
		return st, nil
	}
	if p.reranker != nil {
		st.Hits = p.reranker.Rerank(ctx, st.Req.Query, st.Hits)
	}
	return st, nil
}
