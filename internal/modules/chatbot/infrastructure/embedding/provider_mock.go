package embedding

import (
	"context"
	"hash/fnv"
	"math"

	einoembedding "github.com/cloudwego/eino/components/embedding"
)

// MockEmbedder 本地确定性向量化实现, 同一文本总是得到同一向量.
// 用于本地开发与测试, 不依赖外部模型服务.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 1024
	}
	return &MockEmbedder{dim: dim}
}

var _ einoembedding.Embedder = (*MockEmbedder)(nil)

func (m *MockEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = m.embedOne(t)
	}
	return out, nil
}

func (m *MockEmbedder) embedOne(text string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, m.dim)
	var norm float64
	state := seed
	for i := range vec {
		// xorshift 伪随机序列
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		v := float64(int64(state%2000)-1000) / 1000.0
		vec[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
