package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/service"
	"peer-feedback/backend/pkg/response"
)

// RosterHandler 名册变更级联 HTTP 处理器（教师）
type RosterHandler struct {
	respSvc service.FeedbackResponseService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(respSvc service.FeedbackResponseService) *RosterHandler {
	return &RosterHandler{respSvc: respSvc}
}

// ApplyEnrollment 选课变更（换组 / 换分区）
// POST /api/v1/courses/:course_id/enrollments
func (h *RosterHandler) ApplyEnrollment(c *gin.Context) {
	var req dto.StudentEnrollDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}
	req.Course = c.Param("course_id")

	result, err := h.respSvc.ApplyEnrollmentChange(c.Request.Context(), &req)
	if err != nil {
		handleCascadeError(c, err)
		return
	}
	cascadeOK(c, req.Course, req.Email, result)
}

// ChangeEmail 学生邮箱变更
// PUT /api/v1/courses/:course_id/students/email
func (h *RosterHandler) ChangeEmail(c *gin.Context) {
	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	courseID := c.Param("course_id")
	result, err := h.respSvc.UpdateResponsesForChangingEmail(c.Request.Context(), courseID, req.OldEmail, req.NewEmail)
	if err != nil {
		handleCascadeError(c, err)
		return
	}
	cascadeOK(c, courseID, req.NewEmail, result)
}

// DeleteStudentResponses 删除学生的全部回复
// DELETE /api/v1/courses/:course_id/students/:email/responses
func (h *RosterHandler) DeleteStudentResponses(c *gin.Context) {
	courseID, email := c.Param("course_id"), c.Param("email")
	result, err := h.respSvc.DeleteResponsesForStudentAndCascade(c.Request.Context(), courseID, email)
	if err != nil {
		handleCascadeError(c, err)
		return
	}
	cascadeOK(c, courseID, email, result)
}

// DeleteCourseResponses 删除课程的全部回复
// DELETE /api/v1/courses/:course_id/responses
func (h *RosterHandler) DeleteCourseResponses(c *gin.Context) {
	courseID := c.Param("course_id")
	if err := h.respSvc.DeleteResponsesForCourse(c.Request.Context(), courseID); err != nil {
		handleCascadeError(c, err)
		return
	}
	response.OK(c, dto.CascadeResponse{CourseID: courseID})
}

func cascadeOK(c *gin.Context, courseID, email string, result dto.CascadeResult) {
	response.OK(c, dto.CascadeResponse{CourseID: courseID, Email: email, Result: result})
}

func handleCascadeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEnrollDetailsInvalid):
		response.ErrorWithDetails(c, 400, response.CodeInvalidParams, "名册变更参数无效", err.Error())
	case errors.Is(err, service.ErrCascadeInProgress):
		response.Conflict(c, response.CodeCascadeBusy, "该学生的名册级联正在执行，请稍后重试")
	case errors.Is(err, service.ErrFeedbackResponseExists):
		response.ErrorWithDetails(c, 409, 21103, "新邮箱与已有回复冲突", err.Error())
	default:
		response.InternalError(c)
	}
}
