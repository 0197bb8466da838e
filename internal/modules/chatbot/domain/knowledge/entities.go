package knowledge

import "time"

// Document 知识库文档
type Document struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	DocID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"docId"` // 业务侧文档标识
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Source    string    `gorm:"type:varchar(255)" json:"source"`
	MinLevel  int       `gorm:"default:0" json:"minLevel"` // 可见的最低用户等级
	ChunkNum  int       `gorm:"default:0" json:"chunkNum"`
	Version   int64     `gorm:"default:0" json:"version"` // 每次重新入库递增
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Document) TableName() string { return "kb_document" }

// Chunk 文档切片, 与向量库中的记录一一对应
type Chunk struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ChunkID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"chunkId"`
	DocID      string    `gorm:"type:varchar(64);index;not null" json:"docId"`
	ChunkIndex int       `gorm:"not null" json:"chunkIndex"` // 文档内序号, 从 0 开始
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Chunk) TableName() string { return "kb_chunk" }

// 异步入库事件状态
const (
	IngestStatusPending = "pending"
	IngestStatusDone    = "done"
	IngestStatusFailed  = "failed"
)

// IngestEvent 异步入库事件, 由 kafka 消费端执行, 状态字段保证幂等
type IngestEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	EventID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"eventId"`
	DocID     string    `gorm:"type:varchar(64);index;not null" json:"docId"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Source    string    `gorm:"type:varchar(255)" json:"source"`
	MinLevel  int       `gorm:"default:0" json:"minLevel"`
	Content   string    `gorm:"type:longtext" json:"content"`
	Status    string    `gorm:"type:varchar(16);index;default:pending" json:"status"`
	LastError string    `gorm:"type:varchar(1024)" json:"lastError"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (IngestEvent) TableName() string { return "kb_ingest_event" }
