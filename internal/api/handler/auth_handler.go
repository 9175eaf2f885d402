package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"peer-feedback/backend/internal/api/middleware"
	"peer-feedback/backend/pkg/response"
)

// TokenRevoker 令牌吊销（pkg/redis 实现）
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler 令牌吊销处理器
// 令牌由课程系统签发，本服务只负责校验与吊销
type AuthHandler struct {
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler；revoker 为 nil 时登出仅返回成功
func NewAuthHandler(revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: logger}
}

// Logout 吊销当前 Access Token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.revoker == nil {
		response.OK(c, nil)
		return
	}

	jti := c.GetString(middleware.CtxTokenJTI)
	exp, _ := c.Get(middleware.CtxTokenExp)
	expiresAt, _ := exp.(time.Time)
	if jti == "" || expiresAt.IsZero() {
		response.OK(c, nil)
		return
	}

	if err := h.revoker.BlacklistToken(c.Request.Context(), jti, time.Until(expiresAt)); err != nil {
		h.logger.Error("吊销 Token 失败", zap.String("jti", jti), zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
