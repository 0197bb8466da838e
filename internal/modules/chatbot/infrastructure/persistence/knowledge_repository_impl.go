package persistence

import (
	"context"
	"errors"

	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/internal/modules/chatbot/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type knowledgeRepositoryImpl struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) repository.KnowledgeRepository {
	return &knowledgeRepositoryImpl{db: db}
}

func (r *knowledgeRepositoryImpl) SaveDocument(ctx context.Context, doc *knowledge.Document) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "source", "min_level", "chunk_num", "version", "updated_at",
		}),
	}).Create(doc).Error
}

func (r *knowledgeRepositoryImpl) GetDocument(ctx context.Context, docID string) (*knowledge.Document, error) {
	var doc knowledge.Document
	err := r.db.WithContext(ctx).Where("doc_id = ?", docID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *knowledgeRepositoryImpl) ListDocuments(ctx context.Context, offset, limit int) ([]knowledge.Document, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&knowledge.Document{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []knowledge.Document
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error
	return docs, total, err
}

func (r *knowledgeRepositoryImpl) DeleteDocument(ctx context.Context, docID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", docID).Delete(&knowledge.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Where("doc_id = ?", docID).Delete(&knowledge.Document{}).Error
	})
}

func (r *knowledgeRepositoryImpl) ReplaceChunks(ctx context.Context, docID string, chunks []knowledge.Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", docID).Delete(&knowledge.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 200).Error
	})
}

func (r *knowledgeRepositoryImpl) SaveIngestEvent(ctx context.Context, ev *knowledge.IngestEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *knowledgeRepositoryImpl) GetIngestEvent(ctx context.Context, eventID string) (*knowledge.IngestEvent, error) {
	var ev knowledge.IngestEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *knowledgeRepositoryImpl) UpdateIngestStatus(ctx context.Context, eventID, status, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&knowledge.IngestEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{"status": status, "last_error": lastError}).Error
}
