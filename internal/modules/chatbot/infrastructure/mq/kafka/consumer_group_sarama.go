package kafka

import (
	"context"
	"errors"
	"fmt"

	"alphabot/internal/modules/chatbot/infrastructure/mq"
	"alphabot/pkg/zlog"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type saramaConsumer struct {
	group sarama.ConsumerGroup
}

// NewConsumer 创建消费组消费者
func NewConsumer(brokers []string, groupID string) (mq.Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("new sarama consumer group: %w", err)
	}
	return &saramaConsumer{group: group}, nil
}

func (c *saramaConsumer) Start(ctx context.Context, topics []string, handler mq.Handler) error {
	h := &groupHandler{handler: handler}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			zlog.Error("consumer group session failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *saramaConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler mq.Handler
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		m := mq.Message{
			Topic: msg.Topic,
			Key:   string(msg.Key),
			Value: msg.Value,
		}
		if err := h.handler(sess.Context(), m); err != nil {
			// 处理失败不提交位点, 等待下次重投
			zlog.Error("message handling failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
