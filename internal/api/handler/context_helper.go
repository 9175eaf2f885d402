package handler

import (
	"github.com/gin-gonic/gin"

	"peer-feedback/backend/internal/api/middleware"
	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/pkg/response"
)

// MustGetEmail 从 Gin 上下文中安全提取查看者邮箱。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetEmail(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxEmail)
}

// MustGetRole 从 Gin 上下文中安全提取查看者角色。
func MustGetRole(c *gin.Context) (model.UserRole, bool) {
	s, ok := mustGetString(c, middleware.CtxRole)
	return model.UserRole(s), ok
}

// MustGetCourseID 从 Gin 上下文中安全提取令牌所属课程。
func MustGetCourseID(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxCourseID)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}
