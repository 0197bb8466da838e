package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"alphabot/internal/modules/chatbot/domain/session"
	"alphabot/internal/modules/report"
	"alphabot/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// 维度槽位的识别词表, 命中即捕获
var (
	sportTerms = []string{
		"soccer", "football", "basketball", "tennis", "baseball",
		"esports", "e-sports", "badminton", "volleyball", "boxing",
	}
	productTerms = []string{
		"sportsbook", "casino", "lottery", "number game", "virtual sports",
	}
	betTypeTerms = []string{
		"mix parlay", "parlay", "single", "outright", "handicap",
		"over/under", "over under", "correct score",
	}
)

// Result 一轮意图识别的输出
type Result struct {
	Intent session.Intent
	Params session.ReportParams
	Report report.Definition // Intent 为报表相关时有效
}

// Extractor 意图识别与槽位抽取.
// 先走规则匹配, 规则拿不到槽位且确认是报表意图时才调用模型兜底.
type Extractor struct {
	registry  *report.Registry
	chatModel model.BaseChatModel // 可为空, 为空时只走规则
	now       func() time.Time
}

func NewExtractor(registry *report.Registry, cm model.BaseChatModel) *Extractor {
	return &Extractor{registry: registry, chatModel: cm, now: time.Now}
}

// Extract 识别本轮意图并抽取槽位.
// 会话存在未完成的报表请求时, 本轮被当作参数补充处理.
func (e *Extractor) Extract(ctx context.Context, query string, sess *session.Session) Result {
	params := session.NewReportParams()
	def, reportHit := e.registry.Match(query)
	if reportHit {
		params.ReportType = def.Name
	}

	captured := e.fillSlots(query, &params)

	switch {
	case reportHit:
		if !captured && e.chatModel != nil {
			e.llmFill(ctx, query, &params)
		}
		return Result{Intent: session.IntentReportRequest, Params: params, Report: def}

	case sess != nil && sess.Pending:
		// 上一轮报表缺参, 本轮优先按补充参数理解
		if !captured && e.chatModel != nil {
			captured = e.llmFill(ctx, query, &params)
		}
		if captured {
			pendingDef, _ := e.registry.Get(sess.Params.ReportType)
			return Result{Intent: session.IntentClarification, Params: params, Report: pendingDef}
		}
		return Result{Intent: session.IntentKnowledgeQuery, Params: params}

	default:
		return Result{Intent: session.IntentKnowledgeQuery, Params: params}
	}
}

// fillSlots 规则抽取日期与维度槽位, 返回是否捕获到任一槽位
func (e *Extractor) fillSlots(query string, params *session.ReportParams) bool {
	captured := false

	from, to := ExtractDateRange(query, e.now())
	if from != session.NotAvailable {
		params.FromDate = from
		captured = true
	}
	if to != session.NotAvailable {
		params.ToDate = to
		captured = true
	}

	lower := strings.ToLower(query)
	if v := matchTerm(lower, sportTerms); v != "" {
		params.Sport = v
		captured = true
	}
	if v := matchTerm(lower, productTerms); v != "" {
		params.Product = v
		captured = true
	}
	if v := matchTerm(lower, betTypeTerms); v != "" {
		params.BetType = v
		captured = true
	}
	return captured
}

func matchTerm(lowerText string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(lowerText, t) {
			return t
		}
	}
	return ""
}

const slotFillPrompt = `Extract report parameters from the user message.
Reply with JSON only, using this exact shape:
{"from_date":"YYYY-MM-DD or N/A","to_date":"YYYY-MM-DD or N/A","product":"value or All","sport":"value or All","bettype":"value or All"}

User message: %s`

// llmFill 模型兜底抽取, 解析失败时不改动槽位
func (e *Extractor) llmFill(ctx context.Context, query string, params *session.ReportParams) bool {
	msg, err := e.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(slotFillPrompt, query)),
	})
	if err != nil || msg == nil {
		zlog.Warn("llm slot filling failed", zap.Error(err))
		return false
	}

	start := strings.Index(msg.Content, "{")
	end := strings.LastIndex(msg.Content, "}")
	if start < 0 || end <= start {
		return false
	}

	var out struct {
		FromDate string `json:"from_date"`
		ToDate   string `json:"to_date"`
		Product  string `json:"product"`
		Sport    string `json:"sport"`
		BetType  string `json:"bettype"`
	}
	if err := json.Unmarshal([]byte(msg.Content[start:end+1]), &out); err != nil {
		zlog.Warn("llm slot response not json", zap.Error(err))
		return false
	}

	captured := false
	if d := NormalizeDate(out.FromDate); d != session.NotAvailable {
		params.FromDate = d
		captured = true
	}
	if d := NormalizeDate(out.ToDate); d != session.NotAvailable {
		params.ToDate = d
		captured = true
	}
	if out.Product != "" && out.Product != session.All {
		params.Product = out.Product
		captured = true
	}
	if out.Sport != "" && out.Sport != session.All {
		params.Sport = out.Sport
		captured = true
	}
	if out.BetType != "" && out.BetType != session.All {
		params.BetType = out.BetType
		captured = true
	}
	return captured
}
