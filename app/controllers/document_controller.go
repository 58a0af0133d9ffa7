package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/aihub/answerai-go/internal/models"
	"github.com/aihub/answerai-go/internal/services"
)

// DocumentController 文档控制器
type DocumentController struct {
	BaseController
	docService *services.DocumentService
}

func (c *DocumentController) Prepare() {
	if c.docService == nil {
		c.docService = registry.Documents
	}
}

type registerDocumentRequest struct {
	Name  string `json:"name" validate:"required"`
	Text  string `json:"text" validate:"required"`
	Pages []struct {
		PageNumber int    `json:"page_number"`
		Text       string `json:"text"`
	} `json:"pages"`
}

// Create 登记文档并建立索引
// POST /api/documents
func (c *DocumentController) Create() {
	var req registerDocumentRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if !c.validateStruct(&req) {
		return
	}

	pages := make([]models.DocumentPage, 0, len(req.Pages))
	for _, p := range req.Pages {
		pages = append(pages, models.DocumentPage{PageNumber: p.PageNumber, Text: p.Text})
	}

	doc, err := c.docService.Register(c.Ctx.Request.Context(), req.Name, req.Text, pages)
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(doc)
}

// List 获取文档列表
// GET /api/documents
func (c *DocumentController) List() {
	docs, err := c.docService.List()
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Failed to list documents")
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"documents": docs,
	})
}

// Get 获取文档详情
// GET /api/documents/:id
func (c *DocumentController) Get() {
	doc, err := c.docService.Get(c.Ctx.Input.Param(":id"))
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(doc)
}

// Delete 删除文档并清理索引与缓存
// DELETE /api/documents/:id
func (c *DocumentController) Delete() {
	if err := c.docService.Delete(c.Ctx.Request.Context(), c.Ctx.Input.Param(":id")); err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"deleted": true,
	})
}

// CacheStats 分块缓存统计
// GET /api/documents/cache/stats
func (c *DocumentController) CacheStats() {
	stats, err := c.docService.CacheStats(c.Ctx.Request.Context())
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Failed to collect cache stats")
		return
	}
	c.JSONSuccess(stats)
}
