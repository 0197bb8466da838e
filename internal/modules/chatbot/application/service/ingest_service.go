package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/dto/respond"
	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/pipeline"
	"alphabot/pkg/xerr"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
)

// IngestService 知识库管理服务
type IngestService interface {
	// Ingest 同步入库, 已存在的 docId 会被整体替换
	Ingest(ctx context.Context, req *request.IngestDocRequest) (*respond.IngestData, error)
	ListDocuments(ctx context.Context, page, pageSize int) (*respond.DocumentList, error)
	DeleteDocument(ctx context.Context, docID string) error
}

type ingestServiceImpl struct {
	repo     repository.KnowledgeRepository
	vectors  repository.VectorStore
	pipeline *pipeline.IngestPipeline
}

func NewIngestService(repo repository.KnowledgeRepository, vectors repository.VectorStore, p *pipeline.IngestPipeline) IngestService {
	return &ingestServiceImpl{repo: repo, vectors: vectors, pipeline: p}
}

func (s *ingestServiceImpl) Ingest(ctx context.Context, req *request.IngestDocRequest) (*respond.IngestData, error) {
	if req == nil || req.DocID == "" || strings.TrimSpace(req.Content) == "" {
		return nil, xerr.ErrParam
	}

	result, err := s.pipeline.Execute(ctx, &pipeline.IngestRequest{
		DocID:    req.DocID,
		Title:    req.Title,
		Source:   req.Source,
		MinLevel: req.MinLevel,
		Content:  req.Content,
	})
	if err != nil {
		if errors.Is(err, xerr.ErrEmbeddingUnavailable) {
			return nil, err
		}
		zlog.Error("ingest pipeline failed", zap.String("docId", req.DocID), zap.Error(err))
		return nil, xerr.ErrIngestion
	}

	var version int64 = 1
	if prev, err := s.repo.GetDocument(ctx, req.DocID); err == nil && prev != nil {
		version = prev.Version + 1
	}

	doc := &knowledge.Document{
		DocID:    req.DocID,
		Title:    req.Title,
		Source:   req.Source,
		MinLevel: req.MinLevel,
		ChunkNum: result.ChunkNum,
		Version:  version,
	}
	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		zlog.Error("save document failed", zap.String("docId", req.DocID), zap.Error(err))
		return nil, xerr.ErrIngestion
	}

	chunks := make([]knowledge.Chunk, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = knowledge.Chunk{
			ChunkID:    chunkID(req.DocID, c.Index),
			DocID:      req.DocID,
			ChunkIndex: c.Index,
			Content:    c.Content,
		}
	}
	if err := s.repo.ReplaceChunks(ctx, req.DocID, chunks); err != nil {
		zlog.Error("replace chunks failed", zap.String("docId", req.DocID), zap.Error(err))
		return nil, xerr.ErrIngestion
	}

	return &respond.IngestData{DocID: result.DocID, ChunkNum: result.ChunkNum}, nil
}

func chunkID(docID string, idx int) string {
	return docID + ":" + strconv.Itoa(idx)
}

func (s *ingestServiceImpl) ListDocuments(ctx context.Context, page, pageSize int) (*respond.DocumentList, error) {
	if page <= 0 {
		page = 1
	}
	docs, total, err := s.repo.ListDocuments(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, xerr.ErrServerError
	}

	items := make([]respond.DocumentItem, len(docs))
	for i, d := range docs {
		items[i] = respond.DocumentItem{
			DocID:     d.DocID,
			Title:     d.Title,
			Source:    d.Source,
			MinLevel:  d.MinLevel,
			ChunkNum:  d.ChunkNum,
			UpdatedAt: d.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return &respond.DocumentList{Total: total, Items: items}, nil
}

func (s *ingestServiceImpl) DeleteDocument(ctx context.Context, docID string) error {
	if docID == "" {
		return xerr.ErrParam
	}
	if err := s.vectors.DeleteByDocument(ctx, docID); err != nil {
		zlog.Error("delete vectors failed", zap.String("docId", docID), zap.Error(err))
		return xerr.ErrServerError
	}
	return s.repo.DeleteDocument(ctx, docID)
}
