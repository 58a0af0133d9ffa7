package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/aihub/answerai-go/internal/services"
)

// ConversationController 对话控制器
type ConversationController struct {
	BaseController
	convService *services.ConversationService
}

func (c *ConversationController) Prepare() {
	if c.convService == nil {
		c.convService = registry.Conversations
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type setActiveFilesRequest struct {
	FileIDs []string `json:"file_ids"`
}

type setActiveConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Create 创建对话
// POST /api/conversations
func (c *ConversationController) Create() {
	var req createConversationRequest
	if len(c.Ctx.Input.RequestBody) > 0 {
		if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
			c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	conv, err := c.convService.Create(req.Title)
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(conv)
}

// List 获取对话列表
// GET /api/conversations
func (c *ConversationController) List() {
	convs, err := c.convService.List()
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Failed to list conversations")
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"conversations": convs,
	})
}

// Get 获取对话详情
// GET /api/conversations/:id
func (c *ConversationController) Get() {
	conv, err := c.convService.Get(c.Ctx.Input.Param(":id"))
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(conv)
}

// Delete 删除对话
// DELETE /api/conversations/:id
func (c *ConversationController) Delete() {
	if err := c.convService.Delete(c.Ctx.Input.Param(":id")); err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"deleted": true,
	})
}

// GetActive 获取当前活跃对话
// GET /api/conversations/active
func (c *ConversationController) GetActive() {
	id, err := c.convService.Active(c.Ctx.Request.Context())
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Failed to read active conversation")
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"conversation_id": id,
	})
}

// SetActive 切换当前活跃对话，conversation_id为空表示取消选择
// PUT /api/conversations/active
func (c *ConversationController) SetActive() {
	var req setActiveConversationRequest
	if len(c.Ctx.Input.RequestBody) > 0 {
		if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
			c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	if err := c.convService.SetActive(c.Ctx.Request.Context(), req.ConversationID); err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"conversation_id": req.ConversationID,
	})
}

// SetActiveFiles 设置对话的活跃文档集合
// PUT /api/conversations/:id/files
func (c *ConversationController) SetActiveFiles() {
	var req setActiveFilesRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := c.convService.SetActiveFiles(c.Ctx.Input.Param(":id"), req.FileIDs); err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"file_ids": req.FileIDs,
	})
}
