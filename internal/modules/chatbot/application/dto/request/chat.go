package request

// ChatRequest 对话请求
type ChatRequest struct {
	UserID     string `json:"user_id" binding:"required"` // 用户标识
	Level      int    `json:"level"`                      // 用户等级
	Query      string `json:"query" binding:"required"`   // 用户输入
	SessionKey string `json:"session_key"`                // 为空时开启新会话
}

// IngestDocRequest 文档入库请求
type IngestDocRequest struct {
	DocID    string `json:"doc_id" binding:"required"`  // 业务侧文档标识, 重复入库会替换旧内容
	Title    string `json:"title"`                      // 文档标题
	Source   string `json:"source"`                     // 来源
	MinLevel int    `json:"min_level"`                  // 可见的最低用户等级
	Content  string `json:"content" binding:"required"` // 文档正文
}

// ListDocsRequest 文档列表请求
type ListDocsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}
