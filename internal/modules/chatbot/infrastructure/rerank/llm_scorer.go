package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const scoringPrompt = `Rate how relevant each passage is to the query on a scale from 0.0 to 1.0.
Reply with a JSON array of numbers only, one score per passage, in order.

Query: %s

Passages:
%s`

// LLMScorer 用对话模型做交叉打分, 一次请求给整批段落打分
type LLMScorer struct {
	chatModel model.BaseChatModel
}

func NewLLMScorer(cm model.BaseChatModel) *LLMScorer {
	return &LLMScorer{chatModel: cm}
}

var _ Scorer = (*LLMScorer)(nil)

func (s *LLMScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for i, p := range passages {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, p))
	}

	msg, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(scoringPrompt, query, b.String())),
	})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("empty scoring response")
	}

	scores, err := parseScores(msg.Content, len(passages))
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// parseScores 从模型回复中提取 JSON 数组, 容忍前后缀噪声
func parseScores(content string, want int) ([]float64, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json array in scoring response")
	}

	var scores []float64
	if err := json.Unmarshal([]byte(content[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("got %d scores, want %d", len(scores), want)
	}
	return scores, nil
}
