package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全响应头
// 接口只返回 JSON：不加载任何资源、不被嵌入、不缓存含学生信息的响应
func SecurityHeaders(hstsMaxAge time.Duration) gin.HandlerFunc {
	hsts := ""
	if hstsMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(int(hstsMaxAge.Seconds())) + "; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		h.Set("X-Robots-Tag", "noindex")
		h.Set("Cache-Control", "no-store")
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}
