package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"alphabot/pkg/xerr"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("upstream timeout")
	}
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = []float64{1, 0, 0}
	}
	return out, nil
}

func TestRetryEmbedderSucceedsAfterTransientFailure(t *testing.T) {
	flaky := &flakyEmbedder{failures: 2}
	r := NewRetryEmbedder(flaky, 3, time.Millisecond)

	vecs, err := r.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryEmbedderExhaustsRetries(t *testing.T) {
	flaky := &flakyEmbedder{failures: 10}
	r := NewRetryEmbedder(flaky, 3, time.Millisecond)

	_, err := r.EmbedStrings(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, xerr.ErrEmbeddingUnavailable)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryEmbedderRespectsContextCancel(t *testing.T) {
	flaky := &flakyEmbedder{failures: 10}
	r := NewRetryEmbedder(flaky, 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.EmbedStrings(ctx, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockEmbedderDeterministic(t *testing.T) {
	m := NewMockEmbedder(64)
	a, err := m.EmbedStrings(context.Background(), []string{"same text"})
	require.NoError(t, err)
	b, err := m.EmbedStrings(context.Background(), []string{"same text"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a[0], 64)
}
