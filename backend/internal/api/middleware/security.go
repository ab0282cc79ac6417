package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const kioskCSP = "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'none'"

// SecurityHeaders 安全响应头
// /api 响应含访客姓名与电话，禁止浏览器与代理缓存
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", kioskCSP)
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		c.Next()
	}
}
