package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/mq"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
)

// IngestWorker 消费入库事件并执行同步入库链路
type IngestWorker struct {
	repo   repository.KnowledgeRepository
	ingest service.IngestService
}

func NewIngestWorker(repo repository.KnowledgeRepository, ingest service.IngestService) *IngestWorker {
	return &IngestWorker{repo: repo, ingest: ingest}
}

// Handle 处理一条入库事件.
// 事件不存在或已完成时直接跳过, kafka 重投不会导致重复建索引.
func (w *IngestWorker) Handle(ctx context.Context, msg mq.Message) error {
	var payload service.IngestEventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		zlog.Warn("drop malformed ingest message", zap.Error(err))
		return nil
	}

	ev, err := w.repo.GetIngestEvent(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("load ingest event %s: %w", payload.EventID, err)
	}
	if ev == nil {
		zlog.Warn("ingest event not found, skipping", zap.String("eventId", payload.EventID))
		return nil
	}
	if ev.Status == knowledge.IngestStatusDone {
		zlog.Debug("ingest event already done", zap.String("eventId", ev.EventID))
		return nil
	}

	_, ingestErr := w.ingest.Ingest(ctx, &request.IngestDocRequest{
		DocID:    ev.DocID,
		Title:    ev.Title,
		Source:   ev.Source,
		MinLevel: ev.MinLevel,
		Content:  ev.Content,
	})
	if ingestErr != nil {
		zlog.Error("async ingest failed",
			zap.String("eventId", ev.EventID),
			zap.String("docId", ev.DocID),
			zap.Error(ingestErr))
		_ = w.repo.UpdateIngestStatus(ctx, ev.EventID, knowledge.IngestStatusFailed, ingestErr.Error())
		return ingestErr
	}

	return w.repo.UpdateIngestStatus(ctx, ev.EventID, knowledge.IngestStatusDone, "")
}
