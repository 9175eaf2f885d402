package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/service"
	"peer-feedback/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSessionResponses 导出会话中查看者可见的回复
// GET /api/v1/courses/:course_id/sessions/:session/export?section=
func (h *ExportHandler) ExportSessionResponses(c *gin.Context) {
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

	buf, filename, err := h.exportSvc.ExportSessionResponses(c.Request.Context(),
		c.Param("course_id"), c.Param("session"), email, role, req.SectionFilter())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoQuestions):
		response.NotFound(c, 22101, "该会话暂无题目")
	default:
		response.InternalError(c)
	}
}
