package embedding

import (
	"context"
	"time"

	"alphabot/pkg/xerr"
	"alphabot/pkg/zlog"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

// RetryEmbedder 带有限重试的向量化包装.
// 每次失败后按固定间隔退避, 超过 maxRetries 次后返回 xerr.ErrEmbeddingUnavailable.
type RetryEmbedder struct {
	inner      einoembedding.Embedder
	maxRetries int
	delay      time.Duration
}

func NewRetryEmbedder(inner einoembedding.Embedder, maxRetries int, delay time.Duration) *RetryEmbedder {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &RetryEmbedder{inner: inner, maxRetries: maxRetries, delay: delay}
}

var _ einoembedding.Embedder = (*RetryEmbedder)(nil)

func (r *RetryEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		vecs, err := r.inner.EmbedStrings(ctx, texts, opts...)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		zlog.Warn("embedding attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", r.maxRetries),
			zap.Error(err))

		if attempt == r.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.delay * time.Duration(attempt)):
		}
	}

	zlog.Error("embedding unavailable after retries", zap.Error(lastErr))
	return nil, xerr.ErrEmbeddingUnavailable
}
