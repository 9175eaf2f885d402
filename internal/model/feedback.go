package model

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackQuestion 反馈题目（表 feedback_questions）
// 三个可见性集合相互独立：回复可见不代表任一方姓名可见
type FeedbackQuestion struct {
	FeedbackQuestionID  string                  `gorm:"type:varchar(64);primaryKey"                                       json:"feedback_question_id"`
	FeedbackSessionName string                  `gorm:"type:varchar(255);not null;uniqueIndex:uk_question_number"         json:"feedback_session_name"`
	CourseID            string                  `gorm:"type:varchar(64);not null;uniqueIndex:uk_question_number"          json:"course_id"`
	QuestionNumber      int                     `gorm:"not null;uniqueIndex:uk_question_number"                           json:"question_number"`
	QuestionType        string                  `gorm:"type:varchar(30);not null;default:'TEXT'"                          json:"question_type"`
	QuestionText        string                  `gorm:"type:text"                                                         json:"question_text"`
	GiverType           FeedbackParticipantType `gorm:"type:varchar(40);not null"                                         json:"giver_type"`
	RecipientType       FeedbackParticipantType `gorm:"type:varchar(40);not null"                                         json:"recipient_type"`
	ShowResponsesTo     ParticipantTypes        `gorm:"type:text;not null"                                                json:"show_responses_to"`
	ShowGiverNameTo     ParticipantTypes        `gorm:"type:text;not null"                                                json:"show_giver_name_to"`
	ShowRecipientNameTo ParticipantTypes        `gorm:"type:text;not null"                                                json:"show_recipient_name_to"`
	BaseModel
}

func (FeedbackQuestion) TableName() string { return "feedback_questions" }

// BeforeCreate 未指定 ID 时生成 UUID
func (q *FeedbackQuestion) BeforeCreate(_ *gorm.DB) error {
	if q.FeedbackQuestionID == "" {
		q.FeedbackQuestionID = uuid.NewString()
	}
	return nil
}

// IsResponseVisibleTo 回复是否对该类别可见
func (q *FeedbackQuestion) IsResponseVisibleTo(t FeedbackParticipantType) bool {
	return q.ShowResponsesTo.Contains(t)
}

// GiverOf 提交者身份：团队题也按提交成员的邮箱存储
func (q *FeedbackQuestion) GiverOf(r *FeedbackResponse) Participant {
	return Individual(r.Giver)
}

// RecipientOf 接收方身份：由题目的 recipientType 决定字段是邮箱还是团队名
func (q *FeedbackQuestion) RecipientOf(r *FeedbackResponse) Participant {
	if q.RecipientType.IsTeam() {
		return Team(r.Recipient)
	}
	return Individual(r.Recipient)
}

// FeedbackResponse 反馈回复（表 feedback_responses）
// (feedback_question_id, giver, recipient) 唯一
type FeedbackResponse struct {
	FeedbackResponseID   string `gorm:"type:varchar(36);primaryKey"                                    json:"feedback_response_id"`
	FeedbackSessionName  string `gorm:"type:varchar(255);not null;index:idx_response_session"         json:"feedback_session_name"`
	CourseID             string `gorm:"type:varchar(64);not null;index:idx_response_session"          json:"course_id"`
	FeedbackQuestionID   string `gorm:"type:varchar(64);not null;uniqueIndex:uk_response_key"         json:"feedback_question_id"`
	FeedbackQuestionType string `gorm:"type:varchar(30);not null;default:'TEXT'"                      json:"feedback_question_type"`
	Giver                string `gorm:"type:varchar(255);not null;uniqueIndex:uk_response_key"        json:"giver"`
	GiverSection         string `gorm:"type:varchar(100);not null;default:'None'"                     json:"giver_section"`
	Recipient            string `gorm:"type:varchar(255);not null;uniqueIndex:uk_response_key"        json:"recipient"`
	RecipientSection     string `gorm:"type:varchar(100);not null;default:'None'"                     json:"recipient_section"`
	Answer               string `gorm:"type:text"                                                     json:"answer"` // 按题型序列化的答案，本层不解析
	VersionedModel
}

func (FeedbackResponse) TableName() string { return "feedback_responses" }

// BeforeCreate 未指定 ID 时生成 UUID
func (r *FeedbackResponse) BeforeCreate(_ *gorm.DB) error {
	if r.FeedbackResponseID == "" {
		r.FeedbackResponseID = uuid.NewString()
	}
	return nil
}

// Key 回复的业务唯一键
func (r *FeedbackResponse) Key() ResponseKey {
	return ResponseKey{QuestionID: r.FeedbackQuestionID, Giver: r.Giver, Recipient: r.Recipient}
}

// ResponseKey (题目, 提交者, 接收方) 三元组
type ResponseKey struct {
	QuestionID string
	Giver      string
	Recipient  string
}

func (k ResponseKey) String() string {
	return fmt.Sprintf("question=%s giver=%s recipient=%s", k.QuestionID, k.Giver, k.Recipient)
}

// FeedbackResponseComment 回复评论（表 feedback_response_comments），随回复删除
type FeedbackResponseComment struct {
	FeedbackResponseCommentID string `gorm:"type:varchar(36);primaryKey"          json:"feedback_response_comment_id"`
	FeedbackResponseID        string `gorm:"type:varchar(36);not null;index"      json:"feedback_response_id"`
	FeedbackQuestionID        string `gorm:"type:varchar(64);not null"            json:"feedback_question_id"`
	FeedbackSessionName       string `gorm:"type:varchar(255);not null"           json:"feedback_session_name"`
	CourseID                  string `gorm:"type:varchar(64);not null;index"      json:"course_id"`
	CommentGiver              string `gorm:"type:varchar(255);not null"           json:"comment_giver"`
	CommentText               string `gorm:"type:text"                            json:"comment_text"`
	GiverSection              string `gorm:"type:varchar(100);not null;default:'None'" json:"giver_section"`
	ReceiverSection           string `gorm:"type:varchar(100);not null;default:'None'" json:"receiver_section"`
	BaseModel
}

func (FeedbackResponseComment) TableName() string { return "feedback_response_comments" }

// BeforeCreate 未指定 ID 时生成 UUID
func (c *FeedbackResponseComment) BeforeCreate(_ *gorm.DB) error {
	if c.FeedbackResponseCommentID == "" {
		c.FeedbackResponseCommentID = uuid.NewString()
	}
	return nil
}

// FeedbackSessionRespondent 会话已作答名单（表 feedback_session_respondents）
// 学生行构成 respondingStudentList，教师行构成 respondingInstructorList
type FeedbackSessionRespondent struct {
	CourseID            string `gorm:"type:varchar(64);primaryKey"  json:"course_id"`
	FeedbackSessionName string `gorm:"type:varchar(255);primaryKey" json:"feedback_session_name"`
	Email               string `gorm:"type:varchar(255);primaryKey" json:"email"`
	IsInstructor        bool   `gorm:"not null;default:false"       json:"is_instructor"`
	BaseModel
}

func (FeedbackSessionRespondent) TableName() string { return "feedback_session_respondents" }

// AllModels 参与迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Student{},
		&Instructor{},
		&FeedbackQuestion{},
		&FeedbackResponse{},
		&FeedbackResponseComment{},
		&FeedbackSessionRespondent{},
	}
}
