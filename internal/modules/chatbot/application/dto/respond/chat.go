package respond

// ChatData 对话应答.
// IsAction 为 true 时客户端应调用 Endpoint 并携带 Params, Response 为空;
// 为 false 时 Response 为机器人回复文本.
type ChatData struct {
	UserID       string            `json:"user_id"`
	SessionKey   string            `json:"session_key"`
	IsNewSession bool              `json:"is_new_session"`
	IsAction     bool              `json:"is_action"`
	Endpoint     string            `json:"endpoint"`
	Params       map[string]string `json:"params"`
	Response     string            `json:"response"`
}

// IngestData 入库应答
type IngestData struct {
	DocID    string `json:"doc_id"`
	ChunkNum int    `json:"chunk_num"`
	EventID  string `json:"event_id,omitempty"` // 异步入库时返回事件标识
}

// DocumentItem 文档列表项
type DocumentItem struct {
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	MinLevel  int    `json:"min_level"`
	ChunkNum  int    `json:"chunk_num"`
	UpdatedAt string `json:"updated_at"`
}

// DocumentList 文档列表应答
type DocumentList struct {
	Total int64          `json:"total"`
	Items []DocumentItem `json:"items"`
}
