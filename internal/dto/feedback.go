package dto

import "time"

// ── 反馈回复 DTO ──

// 姓名不可见时的占位
const (
	AnonymousGiver     = "Anonymous giver"
	AnonymousRecipient = "Anonymous recipient"
)

// ViewableResponsesRequest 题目回复查询参数
type ViewableResponsesRequest struct {
	Section string `form:"section" binding:"omitempty,max=100"`
}

// SectionFilter 空串表示不过滤
func (r *ViewableResponsesRequest) SectionFilter() *string {
	if r.Section == "" {
		return nil
	}
	return &r.Section
}

// FeedbackResponseView 面向查看者的回复（姓名已按可见性处理）
type FeedbackResponseView struct {
	ID               string    `json:"id"`
	QuestionID       string    `json:"question_id"`
	Giver            string    `json:"giver"`
	GiverName        string    `json:"giver_name"`
	GiverSection     string    `json:"giver_section"`
	Recipient        string    `json:"recipient"`
	RecipientName    string    `json:"recipient_name"`
	RecipientSection string    `json:"recipient_section"`
	Answer           string    `json:"answer"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateFeedbackResponseRequest 提交回复
type CreateFeedbackResponseRequest struct {
	QuestionID       string `json:"question_id"       binding:"required,max=64"`
	Recipient        string `json:"recipient"         binding:"required,max=255"`
	GiverSection     string `json:"giver_section"     binding:"omitempty,max=100"`
	RecipientSection string `json:"recipient_section" binding:"omitempty,max=100"`
	Answer           string `json:"answer"            binding:"required"`
}

// CreateFeedbackResponsesRequest 批量提交（同一会话）
type CreateFeedbackResponsesRequest struct {
	Responses []CreateFeedbackResponseRequest `json:"responses" binding:"required,min=1,max=200,dive"`
}

// UpdateFeedbackResponseRequest 更新回复；空字段沿用原值
type UpdateFeedbackResponseRequest struct {
	Giver            string `json:"giver"             binding:"omitempty,max=255"`
	Recipient        string `json:"recipient"         binding:"omitempty,max=255"`
	GiverSection     string `json:"giver_section"     binding:"omitempty,max=100"`
	RecipientSection string `json:"recipient_section" binding:"omitempty,max=100"`
	Answer           string `json:"answer"`
	Version          int    `json:"version"           binding:"omitempty,min=1"`
}

// RespondingLists 会话已作答名单
type RespondingLists struct {
	Students    []string `json:"students"`
	Instructors []string `json:"instructors"`
}

// ResponseRateResponse 会话作答率
type ResponseRateResponse struct {
	CourseID     string          `json:"course_id"`
	SessionName  string          `json:"session_name"`
	ResponseRate int             `json:"response_rate"`
	Respondents  RespondingLists `json:"respondents"`
}
