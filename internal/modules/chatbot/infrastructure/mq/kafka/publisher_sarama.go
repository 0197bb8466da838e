package kafka

import (
	"context"
	"fmt"

	"alphabot/internal/modules/chatbot/infrastructure/mq"
	"alphabot/pkg/zlog"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type saramaPublisher struct {
	producer sarama.SyncProducer
}

// NewPublisher 创建幂等的同步生产者.
// WaitForAll + Idempotent 保证单分区内不丢不重, hash 分区器让同一文档的消息有序.
func NewPublisher(brokers []string) (mq.Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("new sarama producer: %w", err)
	}
	return &saramaPublisher{producer: producer}, nil
}

func (p *saramaPublisher) Publish(_ context.Context, msg mq.Message) error {
	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Value),
	}
	if msg.Key != "" {
		pm.Key = sarama.StringEncoder(msg.Key)
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", msg.Topic, err)
	}
	zlog.Debug("message published",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *saramaPublisher) Close() error {
	return p.producer.Close()
}
