package ws

import (
	"encoding/json"
	"net/http"

	"alphabot/internal/middleware/apikey"
	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/pkg/ws"
	"alphabot/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler websocket 流式对话
type StreamHandler struct {
	hub         *ws.Hub
	chatService service.ChatService
}

func NewStreamHandler(hub *ws.Hub, chatService service.ChatService) *StreamHandler {
	return &StreamHandler{hub: hub, chatService: chatService}
}

// Serve GET /chat/stream
// 每条上行消息是一个 ChatRequest, 回复以 delta 事件逐段下发, done 事件携带完整应答.
func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		_ = conn.Close()
		return
	}

	client := ws.NewClient(userID, conn)
	h.hub.Register(client)
	go client.WritePump()
	defer h.hub.Unregister(client)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req request.ChatRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.hub.SendError(userID, "invalid request")
			continue
		}
		req.UserID = userID
		if !apikey.LevelAllowed(req.Level) {
			h.hub.SendError(userID, "invalid user level")
			continue
		}

		data, err := h.chatService.ChatStream(c.Request.Context(), &req, func(delta string) error {
			h.hub.SendDelta(userID, delta)
			return nil
		})
		if err != nil {
			zlog.Error("stream chat failed", zap.String("userId", userID), zap.Error(err))
			h.hub.SendError(userID, err.Error())
			continue
		}
		h.hub.SendDone(userID, data)
	}
}
