package handler

import (
	"github.com/gin-gonic/gin"

	"liberal-checkin/backend/pkg/response"
)

// MustGetTokenJTI 从 Gin 上下文中安全提取 token_jti。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetTokenJTI(c *gin.Context) (string, bool) {
	v, exists := c.Get("token_jti")
	if !exists {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Unauthenticated")
		return "", false
	}
	return s, true
}
