package service

import (
	"context"
	"encoding/json"
	"strings"

	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/dto/respond"
	"alphabot/internal/modules/chatbot/domain/knowledge"
	"alphabot/internal/modules/chatbot/domain/repository"
	"alphabot/internal/modules/chatbot/infrastructure/mq"
	"alphabot/pkg/util"
	"alphabot/pkg/xerr"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
)

// IngestEventPayload kafka 消息体, 只携带事件标识, 正文从库里取
type IngestEventPayload struct {
	EventID string `json:"event_id"`
}

// AsyncIngestService 异步入库服务.
// 请求先落事件表再投 kafka, 消费端按事件状态幂等执行.
type AsyncIngestService interface {
	Submit(ctx context.Context, req *request.IngestDocRequest) (*respond.IngestData, error)
}

type asyncIngestServiceImpl struct {
	repo      repository.KnowledgeRepository
	publisher mq.Publisher
	topic     string
}

func NewAsyncIngestService(repo repository.KnowledgeRepository, publisher mq.Publisher, topic string) AsyncIngestService {
	return &asyncIngestServiceImpl{repo: repo, publisher: publisher, topic: topic}
}

func (s *asyncIngestServiceImpl) Submit(ctx context.Context, req *request.IngestDocRequest) (*respond.IngestData, error) {
	if req == nil || req.DocID == "" || strings.TrimSpace(req.Content) == "" {
		return nil, xerr.ErrParam
	}

	ev := &knowledge.IngestEvent{
		EventID:  util.GenerateUUID(),
		DocID:    req.DocID,
		Title:    req.Title,
		Source:   req.Source,
		MinLevel: req.MinLevel,
		Content:  req.Content,
		Status:   knowledge.IngestStatusPending,
	}
	if err := s.repo.SaveIngestEvent(ctx, ev); err != nil {
		zlog.Error("save ingest event failed", zap.String("docId", req.DocID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	payload, _ := json.Marshal(IngestEventPayload{EventID: ev.EventID})
	if err := s.publisher.Publish(ctx, mq.Message{
		Topic: s.topic,
		Key:   req.DocID, // 同一文档的事件按序消费
		Value: payload,
	}); err != nil {
		zlog.Error("publish ingest event failed", zap.String("eventId", ev.EventID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return &respond.IngestData{DocID: req.DocID, EventID: ev.EventID}, nil
}
