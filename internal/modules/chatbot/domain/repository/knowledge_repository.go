package repository

import (
	"context"

	"alphabot/internal/modules/chatbot/domain/knowledge"
)

// KnowledgeRepository 文档与切片的持久化端口
type KnowledgeRepository interface {
	SaveDocument(ctx context.Context, doc *knowledge.Document) error
	GetDocument(ctx context.Context, docID string) (*knowledge.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]knowledge.Document, int64, error)
	DeleteDocument(ctx context.Context, docID string) error

	// ReplaceChunks 删除 docID 下旧切片后整体写入新切片, 在一个事务内完成
	ReplaceChunks(ctx context.Context, docID string, chunks []knowledge.Chunk) error

	SaveIngestEvent(ctx context.Context, ev *knowledge.IngestEvent) error
	GetIngestEvent(ctx context.Context, eventID string) (*knowledge.IngestEvent, error)
	UpdateIngestStatus(ctx context.Context, eventID, status, lastError string) error
}
