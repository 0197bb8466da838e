package llm

import (
	"context"
	"fmt"

	"alphabot/internal/config"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ChatModelMeta 对话模型元信息
type ChatModelMeta struct {
	Provider string
	Model    string
}

// NewChatModelFromConfig 按配置创建对话模型
func NewChatModelFromConfig(ctx context.Context, c config.ChatModelConfig) (model.BaseChatModel, ChatModelMeta, error) {
	meta := ChatModelMeta{Provider: c.Provider, Model: c.Model}

	switch c.Provider {
	case "openai":
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
		if err != nil {
			return nil, meta, fmt.Errorf("new openai chat model: %w", err)
		}
		return cm, meta, nil

	case "ark":
		cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey: c.APIKey,
			Model:  c.Model,
		})
		if err != nil {
			return nil, meta, fmt.Errorf("new ark chat model: %w", err)
		}
		return cm, meta, nil

	default:
		return nil, meta, fmt.Errorf("unknown chat model provider: %s", c.Provider)
	}
}
