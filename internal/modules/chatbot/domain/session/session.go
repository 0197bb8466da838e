package session

import "time"

// NotAvailable 槽位缺省值, 表示该参数还未从对话中捕获
const NotAvailable = "N/A"

// All 可选维度槽位的默认值, 表示不过滤
const All = "All"

// Intent 意图类别
type Intent string

const (
	IntentKnowledgeQuery Intent = "knowledge_query" // 知识库问答
	IntentReportRequest  Intent = "report_request"  // 报表路由
	IntentClarification  Intent = "clarification"   // 报表参数补充
	IntentUnknown        Intent = "unknown"
)

// ReportParams 报表参数槽位, 跨轮次逐步填充
type ReportParams struct {
	ReportType    string `json:"report_type"`
	FromDate      string `json:"from_date"`
	ToDate        string `json:"to_date"`
	Product       string `json:"product"`
	ProductDetail string `json:"product_detail"`
	Sport         string `json:"sport"`
	BetType       string `json:"bettype"`
	ExtraInfo     string `json:"extra_info"`
}

// NewReportParams 返回全部槽位为缺省值的参数集
func NewReportParams() ReportParams {
	return ReportParams{
		ReportType:    NotAvailable,
		FromDate:      NotAvailable,
		ToDate:        NotAvailable,
		Product:       All,
		ProductDetail: All,
		Sport:         All,
		BetType:       All,
		ExtraInfo:     NotAvailable,
	}
}

// Merge 将新一轮捕获的槽位并入已有槽位.
// 只有具体值能覆盖缺省值或旧的具体值, 缺省值不会把已捕获的槽位打回缺省.
func (p ReportParams) Merge(in ReportParams) ReportParams {
	out := p
	mergeSlot(&out.ReportType, in.ReportType, NotAvailable)
	mergeSlot(&out.FromDate, in.FromDate, NotAvailable)
	mergeSlot(&out.ToDate, in.ToDate, NotAvailable)
	mergeSlot(&out.Product, in.Product, All)
	mergeSlot(&out.ProductDetail, in.ProductDetail, All)
	mergeSlot(&out.Sport, in.Sport, All)
	mergeSlot(&out.BetType, in.BetType, All)
	mergeSlot(&out.ExtraInfo, in.ExtraInfo, NotAvailable)
	return out
}

func mergeSlot(dst *string, src, sentinel string) {
	if src != "" && src != sentinel {
		*dst = src
	}
}

// Missing 返回 required 中仍处于缺省值的槽位名
func (p ReportParams) Missing(required []string) []string {
	vals := p.slotValues()
	var missing []string
	for _, name := range required {
		v, ok := vals[name]
		if !ok {
			continue
		}
		if v == NotAvailable || v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (p ReportParams) slotValues() map[string]string {
	return map[string]string{
		"report_type":    p.ReportType,
		"from_date":      p.FromDate,
		"to_date":        p.ToDate,
		"product":        p.Product,
		"product_detail": p.ProductDetail,
		"sport":          p.Sport,
		"bettype":        p.BetType,
		"extra_info":     p.ExtraInfo,
	}
}

// ToMap 输出给路由端点的参数表
func (p ReportParams) ToMap() map[string]string {
	return p.slotValues()
}

// Turn 一轮对话记录
type Turn struct {
	Query    string    `json:"query"`
	Response string    `json:"response"`
	Intent   Intent    `json:"intent"`
	At       time.Time `json:"at"`
}

// Session 用户会话状态
type Session struct {
	Key       string       `json:"key"`
	UserID    string       `json:"user_id"`
	Level     int          `json:"level"`
	Params    ReportParams `json:"params"`
	Pending   bool         `json:"pending"` // 是否存在未完成的报表请求
	Turns     []Turn       `json:"turns"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSession 创建新会话
func NewSession(key, userID string, level int) *Session {
	now := time.Now()
	return &Session{
		Key:       key,
		UserID:    userID,
		Level:     level,
		Params:    NewReportParams(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn 追加一轮对话
func (s *Session) AppendTurn(t Turn) {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	s.Turns = append(s.Turns, t)
	s.UpdatedAt = time.Now()
}

// ResetParams 报表完成路由后清空槽位与待办标记
func (s *Session) ResetParams() {
	s.Params = NewReportParams()
	s.Pending = false
	s.UpdatedAt = time.Now()
}
