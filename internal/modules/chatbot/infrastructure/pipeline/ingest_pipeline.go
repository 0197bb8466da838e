package pipeline

import (
	"context"
	"fmt"

	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/chunking"
	"alphabot/pkg/zlog"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// IngestRequest 一次文档入库请求
type IngestRequest struct {
	DocID    string
	Title    string
	Source   string
	MinLevel int
	Content  string
}

// IngestResult 入库结果
type IngestResult struct {
	DocID    string
	ChunkNum int
	Chunks   []chunking.Chunk
}

// ingestState 在图节点之间流转的状态.
// 节点内部错误写入 Err, 由末端节点统一抛出, 保持图的边结构简单.
type ingestState struct {
	Req    *IngestRequest
	Chunks []chunking.Chunk
	Vecs   [][]float64
	Err    error
}

// IngestPipeline 文档入库链路: 切分, 向量化, 替换写入.
// 向量化整批完成后才会触碰旧数据, 任何前置失败都不会留下半个索引.
type IngestPipeline struct {
	chunker  chunking.Chunker
	embedder einoembedding.Embedder
	vectors  repository.VectorStore
	runner   ingestRunner
}

func NewIngestPipeline(ctx context.Context, chunker chunking.Chunker, embedder einoembedding.Embedder, vectors repository.VectorStore) (*IngestPipeline, error) {
	p := &IngestPipeline{chunker: chunker, embedder: embedder, vectors: vectors}
	runner, err := buildIngestGraph(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("compile ingest graph: %w", err)
	}
	p.runner = runner
	return p, nil
}

// Execute 执行入库
func (p *IngestPipeline) Execute(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if req == nil || req.DocID == "" {
		return nil, fmt.Errorf("ingest: missing doc id")
	}
	return p.runner.Invoke(ctx, req)
}

func (p *IngestPipeline) chunkNode(ctx context.Context, st *ingestState) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	chunks, err := p.chunker.Split(ctx, st.Req.Content)
	if err != nil {
		st.Err = fmt.Errorf("split document %s: %w", st.Req.DocID, err)
		return st, nil
	}
	if len(chunks) == 0 {
		st.Err = fmt.Errorf("document %s has no content", st.Req.DocID)
		return st, nil
	}
	st.Chunks = chunks
	return st, nil
}

func (p *IngestPipeline) embedNode(ctx context.Context, st *ingestState) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	texts := make([]string, len(st.Chunks))
	for i, c := range st.Chunks {
		texts[i] = c.Content
	}
	vecs, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		st.Err = err
		return st, nil
	}
	if len(vecs) != len(st.Chunks) {
		st.Err = fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(st.Chunks))
		return st, nil
	}
	st.Vecs = vecs
	return st, nil
}

func (p *IngestPipeline) replaceNode(ctx context.Context, st *ingestState) (*ingestState, error) {
	if st.Err != nil {
		return st, nil
	}
	if err := p.vectors.DeleteByDocument(ctx, st.Req.DocID); err != nil {
		st.Err = fmt.Errorf("delete old vectors for %s: %w", st.Req.DocID, err)
		return st, nil
	}

	items := make([]repository.VectorUpsertItem, len(st.Chunks))
	for i, c := range st.Chunks {
		items[i] = repository.VectorUpsertItem{
			ID:         fmt.Sprintf("%s:%d", st.Req.DocID, c.Index),
			Vector:     st.Vecs[i],
			DocID:      st.Req.DocID,
			ChunkIndex: c.Index,
			MinLevel:   st.Req.MinLevel,
			Content:    c.Content,
			Metadata: map[string]any{
				"title":  st.Req.Title,
				"source": st.Req.Source,
			},
		}
	}
	if err := p.vectors.Upsert(ctx, items); err != nil {
		st.Err = fmt.Errorf("upsert vectors for %s: %w", st.Req.DocID, err)
		return st, nil
	}

	zlog.Info("document ingested",
		zap.String("docId", st.Req.DocID),
		zap.Int("chunks", len(st.Chunks)))
	return st, nil
}
