package handler

import (
	"github.com/gin-gonic/gin"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/service"
	"peer-feedback/backend/pkg/response"
)

// SessionHandler 会话作答率 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.FeedbackSessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.FeedbackSessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// GetResponseRate 会话作答率与作答名单
// GET /api/v1/courses/:course_id/sessions/:session/response-rate
func (h *SessionHandler) GetResponseRate(c *gin.Context) {
	courseID, session := c.Param("course_id"), c.Param("session")
	lists, err := h.sessionSvc.GetRespondingLists(c.Request.Context(), session, courseID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dto.ResponseRateResponse{
		CourseID:     courseID,
		SessionName:  session,
		ResponseRate: len(lists.Students) + len(lists.Instructors),
		Respondents:  *lists,
	})
}
