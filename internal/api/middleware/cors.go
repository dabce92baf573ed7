package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ojt-report/backend/config"
)

// 接口只有查询与提交两类动作
const (
	corsAllowMethods = "GET, POST"
	corsAllowHeaders = "Content-Type, Authorization, " + RequestIDHeader
)

// CORS 跨域中间件
//
//   - 白名单来源回写 Allow-Origin 并允许携带 Token
//   - 配置 "*" 时放开所有来源，不带凭证
//   - 非白名单来源的预检直接 403，普通请求不回写任何 CORS 头
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	origins := make(map[string]bool, len(cfg.AllowOrigins))
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
			continue
		}
		origins[o] = true
	}
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if origin != "" {
			c.Header("Vary", "Origin")
			switch {
			case origins[origin]:
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
			case wildcard:
				c.Header("Access-Control-Allow-Origin", "*")
			default:
				if preflight {
					c.AbortWithStatus(http.StatusForbidden)
					return
				}
				c.Next()
				return
			}
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		}

		if preflight {
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			if cfg.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
