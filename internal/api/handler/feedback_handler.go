package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/service"
	pkgerrors "peer-feedback/backend/pkg/errors"
	"peer-feedback/backend/pkg/response"
)

// FeedbackHandler 反馈回复 HTTP 处理器
type FeedbackHandler struct {
	respSvc service.FeedbackResponseService
}

// NewFeedbackHandler 创建 FeedbackHandler
func NewFeedbackHandler(respSvc service.FeedbackResponseService) *FeedbackHandler {
	return &FeedbackHandler{respSvc: respSvc}
}

// ListViewableResponses 查看者在题目下可见的回复（姓名按可见性脱敏）
// GET /api/v1/courses/:course_id/questions/:id/responses?section=
func (h *FeedbackHandler) ListViewableResponses(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.ViewableResponsesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	views, err := h.respSvc.GetViewableResponseViews(c.Request.Context(),
		c.Param("course_id"), c.Param("id"), email, role, req.SectionFilter())
	if err != nil {
		handleFeedbackError(c, err)
		return
	}
	response.OK(c, views)
}

// CreateResponses 以当前用户为提交者批量提交回复
// POST /api/v1/courses/:course_id/sessions/:session/responses
func (h *FeedbackHandler) CreateResponses(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.CreateFeedbackResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	courseID, session := c.Param("course_id"), c.Param("session")
	responses := make([]*model.FeedbackResponse, 0, len(req.Responses))
	for _, r := range req.Responses {
		responses = append(responses, &model.FeedbackResponse{
			FeedbackSessionName: session,
			CourseID:            courseID,
			FeedbackQuestionID:  r.QuestionID,
			Giver:               email,
			GiverSection:        r.GiverSection,
			Recipient:           r.Recipient,
			RecipientSection:    r.RecipientSection,
			Answer:              r.Answer,
		})
	}

	if err := h.respSvc.CreateFeedbackResponses(c.Request.Context(), responses); err != nil {
		handleFeedbackError(c, err)
		return
	}

	ids := make([]string, len(responses))
	for i, r := range responses {
		ids[i] = r.FeedbackResponseID
	}
	response.Created(c, dto.CreatedIDsResponse{IDs: ids})
}

// UpdateResponse 更新回复；学生只能修改自己提交的回复，且不能把提交者改成他人
// PUT /api/v1/courses/:course_id/responses/:id
func (h *FeedbackHandler) UpdateResponse(c *gin.Context) {
	existing, ok := h.loadOwnedResponse(c)
	if !ok {
		return
	}

	var req dto.UpdateFeedbackResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}
	if role, _ := MustGetRole(c); role == model.RoleStudent && req.Giver != "" && req.Giver != existing.Giver {
		response.Forbidden(c, response.CodeForbidden, "不能修改回复的提交者")
		return
	}

	update := &model.FeedbackResponse{
		FeedbackResponseID: existing.FeedbackResponseID,
		Giver:              req.Giver,
		Recipient:          req.Recipient,
		GiverSection:       req.GiverSection,
		RecipientSection:   req.RecipientSection,
		Answer:             req.Answer,
		VersionedModel:     model.VersionedModel{Version: req.Version},
	}
	if err := h.respSvc.UpdateFeedbackResponse(c.Request.Context(), update); err != nil {
		handleFeedbackError(c, err)
		return
	}
	response.OK(c, update)
}

// DeleteResponse 删除回复及其评论
// DELETE /api/v1/courses/:course_id/responses/:id
func (h *FeedbackHandler) DeleteResponse(c *gin.Context) {
	existing, ok := h.loadOwnedResponse(c)
	if !ok {
		return
	}
	if err := h.respSvc.DeleteResponseAndCascade(c.Request.Context(), existing); err != nil {
		handleFeedbackError(c, err)
		return
	}
	response.OK(c, nil)
}

// loadOwnedResponse 读取路径中的回复并校验课程与归属
func (h *FeedbackHandler) loadOwnedResponse(c *gin.Context) (*model.FeedbackResponse, bool) {
	email, ok := MustGetEmail(c)
	if !ok {
		return nil, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return nil, false
	}

	existing, err := h.respSvc.GetFeedbackResponseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleFeedbackError(c, err)
		return nil, false
	}
	if existing.CourseID != c.Param("course_id") {
		response.NotFound(c, 21101, "回复不存在")
		return nil, false
	}
	if role == model.RoleStudent && existing.Giver != email {
		response.Forbidden(c, response.CodeForbidden, "只能修改自己提交的回复")
		return nil, false
	}
	return existing, true
}

func handleFeedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFeedbackResponseNotFound):
		response.NotFound(c, 21101, "回复不存在")
	case errors.Is(err, service.ErrFeedbackQuestionNotFound):
		response.NotFound(c, 21102, "题目不存在")
	case errors.Is(err, service.ErrFeedbackResponseExists):
		response.ErrorWithDetails(c, 409, 21103, "回复已存在", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, response.CodeConflict, "回复已被修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
