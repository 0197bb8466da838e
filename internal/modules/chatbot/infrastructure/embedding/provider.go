package embedding

import (
	"context"
	"fmt"

	"alphabot/internal/config"

	"github.com/cloudwego/eino-ext/components/embedding/ark"
	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/embedding/openai"
	einoembedding "github.com/cloudwego/eino/components/embedding"
)

// EmbedderMeta 向量化模型元信息
type EmbedderMeta struct {
	Provider string
	Model    string
	Dim      int
}

// NewEmbedderFromConfig 按配置创建向量化实现
func NewEmbedderFromConfig(ctx context.Context, c config.EmbeddingConfig) (einoembedding.Embedder, EmbedderMeta, error) {
	meta := EmbedderMeta{Provider: c.Provider, Model: c.Model, Dim: c.Dim}

	switch c.Provider {
	case "mock":
		return NewMockEmbedder(c.Dim), meta, nil

	case "openai":
		dim := c.Dim
		emb, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
			APIKey:     c.APIKey,
			BaseURL:    c.BaseURL,
			Model:      c.Model,
			Dimensions: &dim,
		})
		if err != nil {
			return nil, meta, fmt.Errorf("new openai embedder: %w", err)
		}
		return emb, meta, nil

	case "ark":
		emb, err := ark.NewEmbedder(ctx, &ark.EmbeddingConfig{
			APIKey: c.APIKey,
			Model:  c.Model,
		})
		if err != nil {
			return nil, meta, fmt.Errorf("new ark embedder: %w", err)
		}
		return emb, meta, nil

	case "dashscope":
		dim := c.Dim
		emb, err := dashscope.NewEmbedder(ctx, &dashscope.EmbeddingConfig{
			APIKey:     c.APIKey,
			Model:      c.Model,
			Dimensions: &dim,
		})
		if err != nil {
			return nil, meta, fmt.Errorf("new dashscope embedder: %w", err)
		}
		return emb, meta, nil

	default:
		return nil, meta, fmt.Errorf("unknown embedding provider: %s", c.Provider)
	}
}
