package ws

import (
	"encoding/json"
	"sync"
	"time"

	"alphabot/pkg/zlog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 下行事件类型
const (
	EventDelta = "delta" // 回答的一个增量片段
	EventDone  = "done"  // 本轮结束, 携带完整应答
	EventError = "error" // 本轮失败
)

// Event websocket 下行帧
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub 按用户管理流式连接, 每个用户同时只保留一条.
// 新连接会顶掉同一用户的旧连接.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	prev := h.clients[c.userID]
	h.clients[c.userID] = c
	h.mu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

// Unregister 摘除连接, 只摘当前连接, 被顶掉的旧连接不影响新连接
func (h *Hub) Unregister(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	if h.clients[c.userID] == c {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()
	c.Close()
}

// SendDelta 下发一个回答增量
func (h *Hub) SendDelta(userID, text string) bool {
	return h.send(userID, Event{Event: EventDelta, Data: text})
}

// SendDone 下发本轮的完整应答
func (h *Hub) SendDone(userID string, data any) bool {
	return h.send(userID, Event{Event: EventDone, Data: data})
}

// SendError 下发错误提示
func (h *Hub) SendError(userID, msg string) bool {
	return h.send(userID, Event{Event: EventError, Data: msg})
}

func (h *Hub) send(userID string, ev Event) bool {
	if userID == "" {
		return false
	}
	b, err := json.Marshal(ev)
	if err != nil {
		zlog.Error("marshal ws event failed", zap.Error(err))
		return false
	}

	h.mu.Lock()
	c := h.clients[userID]
	h.mu.Unlock()
	if c == nil {
		return false
	}

	select {
	case c.send <- b:
		return true
	default:
		// 写缓冲打满说明对端已经不消费了, 直接摘掉
		h.Unregister(c)
		return false
	}
}

type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			zlog.Error(err.Error())
			return
		}
	}
}
