package repository

import (
	"context"

	"gorm.io/gorm"

	"peer-feedback/backend/internal/model"
)

// FeedbackCommentRepository 回复评论数据访问接口
// 评论的增改由评论模块负责，这里只覆盖级联所需的操作
type FeedbackCommentRepository interface {
	Create(ctx context.Context, comment *model.FeedbackResponseComment) error
	ListByResponse(ctx context.Context, responseID string) ([]model.FeedbackResponseComment, error)
	UpdateSectionsForResponse(ctx context.Context, responseID, giverSection, receiverSection string) error
	DeleteByResponse(ctx context.Context, responseID string) (int64, error)
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

type feedbackCommentRepo struct {
	db *gorm.DB
}

// NewFeedbackCommentRepo 创建 FeedbackCommentRepository 实例
func NewFeedbackCommentRepo(db *gorm.DB) FeedbackCommentRepository {
	return &feedbackCommentRepo{db: db}
}

func (r *feedbackCommentRepo) Create(ctx context.Context, comment *model.FeedbackResponseComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *feedbackCommentRepo) ListByResponse(ctx context.Context, responseID string) ([]model.FeedbackResponseComment, error) {
	var comments []model.FeedbackResponseComment
	err := r.db.WithContext(ctx).
		Where("feedback_response_id = ?", responseID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// UpdateSectionsForResponse 回复的分区变化后同步评论上的分区
func (r *feedbackCommentRepo) UpdateSectionsForResponse(ctx context.Context, responseID, giverSection, receiverSection string) error {
	return r.db.WithContext(ctx).
		Model(&model.FeedbackResponseComment{}).
		Where("feedback_response_id = ?", responseID).
		Updates(map[string]interface{}{
			"giver_section":    giverSection,
			"receiver_section": receiverSection,
		}).Error
}

func (r *feedbackCommentRepo) DeleteByResponse(ctx context.Context, responseID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("feedback_response_id = ?", responseID).
		Delete(&model.FeedbackResponseComment{})
	return result.RowsAffected, result.Error
}

func (r *feedbackCommentRepo) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&model.FeedbackResponseComment{})
	return result.RowsAffected, result.Error
}
