package mq

import "context"

// Message 一条待投递消息
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// Publisher 消息发布端口
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Handler 消费回调, 返回错误时消息不提交位点
type Handler func(ctx context.Context, msg Message) error

// Consumer 消息消费端口
type Consumer interface {
	// Start 阻塞消费直到 ctx 取消
	Start(ctx context.Context, topics []string, handler Handler) error
	Close() error
}
