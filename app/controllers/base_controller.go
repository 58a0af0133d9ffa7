package controllers

import (
	"net/http"

	apperrors "github.com/aihub/answerai-go/internal/errors"
	"github.com/beego/beego/v2/server/web"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// JSONAppError 按AppError携带的HTTP状态码与错误码输出
func (c *BaseController) JSONAppError(err error) {
	appErr := apperrors.GetAppError(err)
	c.JSON(appErr.HTTPCode, map[string]interface{}{
		"success": false,
		"code":    appErr.Code,
		"error":   appErr.Message,
	})
}

// validateStruct 校验请求体，返回首个校验错误消息
func (c *BaseController) validateStruct(req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}
