package rerank

import (
	"context"
	"errors"
	"testing"

	"alphabot/internal/modules/chatbot/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	scores []float64
	err    error
}

func (s *stubScorer) Score(_ context.Context, _ string, _ []string) ([]float64, error) {
	return s.scores, s.err
}

func hitsFixture() []repository.VectorSearchHit {
	return []repository.VectorSearchHit{
		{ID: "c1", Content: "alpha", Score: 0.9},
		{ID: "c2", Content: "beta", Score: 0.8},
		{ID: "c3", Content: "gamma", Score: 0.7},
		{ID: "c4", Content: "delta", Score: 0.6},
	}
}

func TestRerankOrdersByScore(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.1, 0.9, 0.5, 0.3}}, 3)
	out := r.Rerank(context.Background(), "q", hitsFixture())
	require.Len(t, out, 3)
	assert.Equal(t, "c2", out[0].ID)
	assert.Equal(t, "c3", out[1].ID)
	assert.Equal(t, "c4", out[2].ID)
}

func TestRerankStableTieBreak(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.5, 0.5, 0.5, 0.5}}, 3)
	out := r.Rerank(context.Background(), "q", hitsFixture())
	require.Len(t, out, 3)
	// 同分时沿用第一轮检索次序
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "c2", out[1].ID)
	assert.Equal(t, "c3", out[2].ID)
}

func TestRerankFallbackOnScorerError(t *testing.T) {
	r := NewReranker(&stubScorer{err: errors.New("model down")}, 2)
	out := r.Rerank(context.Background(), "q", hitsFixture())
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "c2", out[1].ID)
}

func TestRerankFewerHitsThanTopN(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.2, 0.8}}, 5)
	hits := hitsFixture()[:2]
	out := r.Rerank(context.Background(), "q", hits)
	require.Len(t, out, 2)
	assert.Equal(t, "c2", out[0].ID)
}

func TestRerankEmptyHits(t *testing.T) {
	r := NewReranker(&stubScorer{}, 3)
	out := r.Rerank(context.Background(), "q", nil)
	assert.Empty(t, out)
}

func TestParseScoresTolerantOfNoise(t *testing.T) {
	scores, err := parseScores("Here are the scores: [0.1, 0.9, 0.5] hope that helps", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.9, 0.5}, scores)
}

func TestParseScoresCountMismatch(t *testing.T) {
	_, err := parseScores("[0.1, 0.9]", 3)
	assert.Error(t, err)
}
