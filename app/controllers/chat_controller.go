package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/aihub/answerai-go/internal/services"
)

// ChatController 问答控制器
type ChatController struct {
	BaseController
	chatService *services.ChatService
}

func (c *ChatController) Prepare() {
	if c.chatService == nil {
		c.chatService = registry.Chat
	}
}

type askRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Question       string `json:"question" validate:"required"`
}

// Ask 基于对话的活跃文档回答问题
// POST /api/chat/ask
func (c *ChatController) Ask() {
	var req askRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if !c.validateStruct(&req) {
		return
	}

	resp, err := c.chatService.Ask(c.Ctx.Request.Context(), req.ConversationID, req.Question)
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(resp)
}
