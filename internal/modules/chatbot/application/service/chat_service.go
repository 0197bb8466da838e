package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/dto/respond"
	"alphabot/internal/modules/chatbot/domain/session"
	"alphabot/internal/modules/chatbot/infrastructure/intent"
	"alphabot/internal/modules/chatbot/infrastructure/llm"
	"alphabot/internal/modules/chatbot/infrastructure/pipeline"
	"alphabot/internal/modules/chatbot/infrastructure/sessionstore"
	"alphabot/internal/modules/report"
	"alphabot/pkg/util"
	"alphabot/pkg/xerr"
	"alphabot/pkg/zlog"

	"go.uber.org/zap"
)

// ChatService 对话服务
type ChatService interface {
	// Chat 处理一轮对话, 同一用户的轮次串行执行
	Chat(ctx context.Context, req *request.ChatRequest) (*respond.ChatData, error)
	// ChatStream 流式版本, 知识问答的回复通过 onDelta 逐段下发
	ChatStream(ctx context.Context, req *request.ChatRequest, onDelta func(string) error) (*respond.ChatData, error)
	// ResetSession 丢弃会话状态
	ResetSession(ctx context.Context, sessionKey string) error
}

type chatServiceImpl struct {
	sessions  sessionstore.Store
	locker    sessionstore.Locker
	extractor *intent.Extractor
	retrieval *pipeline.QueryPipeline
	generator *llm.Generator
	registry  *report.Registry
}

func NewChatService(
	sessions sessionstore.Store,
	locker sessionstore.Locker,
	extractor *intent.Extractor,
	retrieval *pipeline.QueryPipeline,
	generator *llm.Generator,
	registry *report.Registry,
) ChatService {
	return &chatServiceImpl{
		sessions:  sessions,
		locker:    locker,
		extractor: extractor,
		retrieval: retrieval,
		generator: generator,
		registry:  registry,
	}
}

func (s *chatServiceImpl) Chat(ctx context.Context, req *request.ChatRequest) (*respond.ChatData, error) {
	return s.chat(ctx, req, nil)
}

func (s *chatServiceImpl) ChatStream(ctx context.Context, req *request.ChatRequest, onDelta func(string) error) (*respond.ChatData, error) {
	return s.chat(ctx, req, onDelta)
}

func (s *chatServiceImpl) chat(ctx context.Context, req *request.ChatRequest, onDelta func(string) error) (*respond.ChatData, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" || req.UserID == "" {
		return nil, xerr.ErrParam
	}

	unlock, err := s.locker.Lock(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, isNew, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	res := s.extractor.Extract(ctx, req.Query, sess)

	var data *respond.ChatData
	switch res.Intent {
	case session.IntentReportRequest, session.IntentClarification:
		data, err = s.handleReport(ctx, sess, req.Query, res)
	default:
		data, err = s.handleKnowledge(ctx, sess, req.Query, onDelta)
	}
	if err != nil {
		// 失败的轮次不落会话, 下一轮看到的状态与本轮开始时一致
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		zlog.Error("save session failed", zap.String("sessionKey", sess.Key), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	data.UserID = req.UserID
	data.SessionKey = sess.Key
	data.IsNewSession = isNew
	return data, nil
}

// resolveSession 取回已有会话, 不存在或已过期时开新会话
func (s *chatServiceImpl) resolveSession(ctx context.Context, req *request.ChatRequest) (*session.Session, bool, error) {
	if req.SessionKey != "" {
		sess, err := s.sessions.Get(ctx, req.SessionKey)
		if err != nil {
			return nil, false, err
		}
		if sess != nil {
			sess.Level = req.Level
			return sess, false, nil
		}
	}

	key := req.SessionKey
	if key == "" {
		key = util.GenerateUUID()
	}
	return session.NewSession(key, req.UserID, req.Level), true, nil
}

func (s *chatServiceImpl) handleReport(ctx context.Context, sess *session.Session, query string, res intent.Result) (*respond.ChatData, error) {
	def := res.Report
	if def.Name == "" {
		// 补充参数但找不到在途报表定义, 按知识问答兜底
		return s.handleKnowledge(ctx, sess, query, nil)
	}

	if sess.Level < def.MinLevel {
		reply := "Sorry, your account level does not have access to this report."
		sess.AppendTurn(session.Turn{Query: query, Response: reply, Intent: res.Intent})
		return &respond.ChatData{Response: reply, Params: sess.Params.ToMap()}, nil
	}

	// 换了报表类型时丢弃旧槽位, 避免上一张报表的参数串进来
	if res.Intent == session.IntentReportRequest && sess.Params.ReportType != session.NotAvailable &&
		sess.Params.ReportType != def.Name {
		sess.ResetParams()
	}

	sess.Params = sess.Params.Merge(res.Params)
	sess.Params.ReportType = def.Name

	missing := sess.Params.Missing(def.RequiredFields)
	if len(missing) > 0 {
		sess.Pending = true
		reply := clarifyPrompt(def, missing)
		sess.AppendTurn(session.Turn{Query: query, Response: reply, Intent: res.Intent})
		// 追问轮也带出当前槽位, 未捕获的字段以 N/A / All 哨兵值呈现
		return &respond.ChatData{Response: reply, Params: sess.Params.ToMap()}, nil
	}

	params := sess.Params.ToMap()
	sess.AppendTurn(session.Turn{Query: query, Intent: res.Intent})
	sess.ResetParams()

	zlog.Info("report routed",
		zap.String("report", def.Name),
		zap.String("endpoint", def.Endpoint))
	return &respond.ChatData{
		IsAction: true,
		Endpoint: def.Endpoint,
		Params:   params,
	}, nil
}

func clarifyPrompt(def report.Definition, missing []string) string {
	labels := make([]string, len(missing))
	for i, m := range missing {
		labels[i] = strings.ReplaceAll(m, "_", " ")
	}
	return fmt.Sprintf("To generate the %s report I still need: %s. Could you provide them?",
		strings.ReplaceAll(def.Name, "_", " "), strings.Join(labels, ", "))
}

func (s *chatServiceImpl) handleKnowledge(ctx context.Context, sess *session.Session, query string, onDelta func(string) error) (*respond.ChatData, error) {
	result, err := s.retrieval.Execute(ctx, &pipeline.QueryRequest{
		Query:    query,
		MaxLevel: sess.Level,
	})
	if err != nil {
		return nil, err
	}

	var answer string
	if onDelta != nil {
		answer, err = s.streamAnswer(ctx, query, result.Passages(), onDelta)
	} else {
		answer, err = s.generator.Generate(ctx, query, result.Passages())
	}
	if err != nil {
		return nil, err
	}

	sess.AppendTurn(session.Turn{Query: query, Response: answer, Intent: session.IntentKnowledgeQuery})
	return &respond.ChatData{Response: answer, Params: map[string]string{}}, nil
}

func (s *chatServiceImpl) streamAnswer(ctx context.Context, query string, passages []string, onDelta func(string) error) (string, error) {
	sr, err := s.generator.Stream(ctx, query, passages)
	if err != nil {
		return "", err
	}
	defer sr.Close()

	var b strings.Builder
	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			zlog.Error("answer stream failed", zap.Error(err))
			return "", xerr.ErrGeneration
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		b.WriteString(msg.Content)
		if err := onDelta(msg.Content); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (s *chatServiceImpl) ResetSession(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return xerr.ErrParam
	}
	return s.sessions.Delete(ctx, sessionKey)
}
