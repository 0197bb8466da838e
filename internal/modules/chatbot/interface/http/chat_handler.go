package http

import (
	"alphabot/internal/middleware/apikey"
	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/pkg/back"
	"alphabot/pkg/xerr"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	if !apikey.LevelAllowed(req.Level) {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	data, err := h.chatService.Chat(c.Request.Context(), &req)
	back.Result(c, data, err)
}

// Demo POST /demo, 固定演示账号, 方便联调
func (h *ChatHandler) Demo(c *gin.Context) {
	var body struct {
		Query      string `json:"query" binding:"required"`
		SessionKey string `json:"session_key"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	data, err := h.chatService.Chat(c.Request.Context(), &request.ChatRequest{
		UserID:     "demo_user",
		Level:      1,
		Query:      body.Query,
		SessionKey: body.SessionKey,
	})
	back.Result(c, data, err)
}

// ResetSession DELETE /session/:key
func (h *ChatHandler) ResetSession(c *gin.Context) {
	err := h.chatService.ResetSession(c.Request.Context(), c.Param("key"))
	back.Result(c, nil, err)
}
