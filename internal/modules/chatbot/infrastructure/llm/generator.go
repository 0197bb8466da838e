package llm

import (
	"context"
	"fmt"
	"strings"

	"alphabot/pkg/xerr"
	"alphabot/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const groundedSystemPrompt = `You are a helpful assistant for a sports betting analytics platform.
Answer the user's question using ONLY the reference passages below.
If the passages do not contain the answer, say that you don't have that information.
Keep answers concise and factual.

Reference passages:
%s`

// NoContextAnswer 检索无结果时的固定回答
const NoContextAnswer = "I don't have information about that in my knowledge base. Could you rephrase your question or ask about something else?"

// Generator 基于检索上下文的回答生成器
type Generator struct {
	chatModel model.BaseChatModel
}

func NewGenerator(cm model.BaseChatModel) *Generator {
	return &Generator{chatModel: cm}
}

// Generate 生成有依据的回答. 上游模型错误统一映射为 GenerationError.
func (g *Generator) Generate(ctx context.Context, query string, passages []string) (string, error) {
	if len(passages) == 0 {
		return NoContextAnswer, nil
	}

	msg, err := g.chatModel.Generate(ctx, buildMessages(query, passages))
	if err != nil {
		zlog.Error("chat model generate failed", zap.Error(err))
		return "", xerr.ErrGeneration
	}
	if msg == nil || msg.Content == "" {
		return "", xerr.ErrGeneration
	}
	return msg.Content, nil
}

// Stream 流式生成. 调用方负责消费并关闭返回的 reader.
func (g *Generator) Stream(ctx context.Context, query string, passages []string) (*schema.StreamReader[*schema.Message], error) {
	if len(passages) == 0 {
		return schema.StreamReaderFromArray([]*schema.Message{
			schema.AssistantMessage(NoContextAnswer, nil),
		}), nil
	}

	sr, err := g.chatModel.Stream(ctx, buildMessages(query, passages))
	if err != nil {
		zlog.Error("chat model stream failed", zap.Error(err))
		return nil, xerr.ErrGeneration
	}
	return sr, nil
}

func buildMessages(query string, passages []string) []*schema.Message {
	var b strings.Builder
	for i, p := range passages {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, p))
	}
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(groundedSystemPrompt, b.String())),
		schema.UserMessage(query),
	}
}
