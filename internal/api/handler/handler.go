package handler

import (
	"go.uber.org/zap"

	"peer-feedback/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Feedback *FeedbackHandler
	Roster   *RosterHandler
	Session  *SessionHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合；revoker 可为 nil
func NewHandler(svc *service.Service, revoker TokenRevoker, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(revoker, logger),
		Feedback: NewFeedbackHandler(svc.FeedbackResponse),
		Roster:   NewRosterHandler(svc.FeedbackResponse),
		Session:  NewSessionHandler(svc.FeedbackSession),
		Export:   NewExportHandler(svc.Export),
	}
}
