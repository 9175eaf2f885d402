package dto

// ── 通用响应 ──

// CascadeResponse 级联操作响应
type CascadeResponse struct {
	CourseID string        `json:"course_id"`
	Email    string        `json:"email,omitempty"`
	Result   CascadeResult `json:"result"`
}

// CreatedIDsResponse 批量创建结果
type CreatedIDsResponse struct {
	IDs []string `json:"ids"`
}
