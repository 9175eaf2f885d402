package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Student           StudentRepository
	Instructor        InstructorRepository
	FeedbackQuestion  FeedbackQuestionRepository
	FeedbackResponse  FeedbackResponseRepository
	FeedbackComment   FeedbackCommentRepository
	SessionRespondent SessionRespondentRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                db,
		Student:           NewStudentRepo(db),
		Instructor:        NewInstructorRepo(db),
		FeedbackQuestion:  NewFeedbackQuestionRepo(db),
		FeedbackResponse:  NewFeedbackResponseRepo(db),
		FeedbackComment:   NewFeedbackCommentRepo(db),
		SessionRespondent: NewSessionRespondentRepo(db),
	}
}

// Transaction 在同一事务中执行 fn，fn 内须使用传入的 tx 聚合
// 未绑定数据库（单元测试中的内存实现）时直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
