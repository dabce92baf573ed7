package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"ojt-report/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenMeta 提取当前 Token 的 jti 与过期时间（由 JWTAuth 注入）
func tokenMeta(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString("token_jti")
	v, exists := c.Get("token_exp")
	if jti == "" || !exists {
		return "", time.Time{}, false
	}
	exp, ok := v.(time.Time)
	return jti, exp, ok
}
