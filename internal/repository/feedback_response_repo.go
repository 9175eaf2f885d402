package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"peer-feedback/backend/internal/model"
	pkgerrors "peer-feedback/backend/pkg/errors"
)

// FeedbackResponseRepository 反馈回复数据访问接口
// (feedback_question_id, giver, recipient) 在数据库唯一索引之外，Create/Update 也会先行校验
type FeedbackResponseRepository interface {
	Create(ctx context.Context, response *model.FeedbackResponse) error
	GetByID(ctx context.Context, id string) (*model.FeedbackResponse, error)
	Find(ctx context.Context, questionID, giver, recipient string) (*model.FeedbackResponse, error)
	ListByQuestion(ctx context.Context, questionID string) ([]model.FeedbackResponse, error)
	ListByReceiverForQuestion(ctx context.Context, questionID, recipient string) ([]model.FeedbackResponse, error)
	ListByGiverForQuestion(ctx context.Context, questionID, giver string) ([]model.FeedbackResponse, error)
	ListBySession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackResponse, error)
	ListByGiverForCourse(ctx context.Context, courseID, giver string) ([]model.FeedbackResponse, error)
	ListByReceiverForCourse(ctx context.Context, courseID, recipient string) ([]model.FeedbackResponse, error)
	CountByGiverInSession(ctx context.Context, courseID, sessionName, giver string) (int64, error)
	Update(ctx context.Context, response *model.FeedbackResponse) error
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

type feedbackResponseRepo struct {
	db *gorm.DB
}

// NewFeedbackResponseRepo 创建 FeedbackResponseRepository 实例
func NewFeedbackResponseRepo(db *gorm.DB) FeedbackResponseRepository {
	return &feedbackResponseRepo{db: db}
}

// Create 键冲突时返回 pkgerrors.ErrAlreadyExists
func (r *feedbackResponseRepo) Create(ctx context.Context, response *model.FeedbackResponse) error {
	if response.Version == 0 {
		response.Version = 1
	}
	err := r.db.WithContext(ctx).Create(response).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrAlreadyExists
	}
	return err
}

func (r *feedbackResponseRepo) GetByID(ctx context.Context, id string) (*model.FeedbackResponse, error) {
	var response model.FeedbackResponse
	err := r.db.WithContext(ctx).
		Where("feedback_response_id = ?", id).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *feedbackResponseRepo) Find(ctx context.Context, questionID, giver, recipient string) (*model.FeedbackResponse, error) {
	var response model.FeedbackResponse
	err := r.db.WithContext(ctx).
		Where("feedback_question_id = ? AND giver = ? AND recipient = ?", questionID, giver, recipient).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *feedbackResponseRepo) ListByQuestion(ctx context.Context, questionID string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "feedback_question_id = ?", questionID)
}

func (r *feedbackResponseRepo) ListByReceiverForQuestion(ctx context.Context, questionID, recipient string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "feedback_question_id = ? AND recipient = ?", questionID, recipient)
}

func (r *feedbackResponseRepo) ListByGiverForQuestion(ctx context.Context, questionID, giver string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "feedback_question_id = ? AND giver = ?", questionID, giver)
}

func (r *feedbackResponseRepo) ListBySession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "course_id = ? AND feedback_session_name = ?", courseID, sessionName)
}

func (r *feedbackResponseRepo) ListByGiverForCourse(ctx context.Context, courseID, giver string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "course_id = ? AND giver = ?", courseID, giver)
}

func (r *feedbackResponseRepo) ListByReceiverForCourse(ctx context.Context, courseID, recipient string) ([]model.FeedbackResponse, error) {
	return r.list(ctx, "course_id = ? AND recipient = ?", courseID, recipient)
}

// list 按写入顺序返回
func (r *feedbackResponseRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.FeedbackResponse, error) {
	var responses []model.FeedbackResponse
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at ASC").
		Find(&responses).Error
	return responses, err
}

func (r *feedbackResponseRepo) CountByGiverInSession(ctx context.Context, courseID, sessionName, giver string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FeedbackResponse{}).
		Where("course_id = ? AND feedback_session_name = ? AND giver = ?", courseID, sessionName, giver).
		Count(&count).Error
	return count, err
}

// Update 按 ID 与版本号更新可变字段
// 新键与其他回复冲突返回 ErrAlreadyExists；ID 不存在返回 gorm.ErrRecordNotFound；版本不一致返回 ErrOptimisticLock
func (r *feedbackResponseRepo) Update(ctx context.Context, response *model.FeedbackResponse) error {
	var clash int64
	if err := r.db.WithContext(ctx).
		Model(&model.FeedbackResponse{}).
		Where("feedback_question_id = ? AND giver = ? AND recipient = ? AND feedback_response_id <> ?",
			response.FeedbackQuestionID, response.Giver, response.Recipient, response.FeedbackResponseID).
		Count(&clash).Error; err != nil {
		return err
	}
	if clash > 0 {
		return pkgerrors.ErrAlreadyExists
	}

	oldVersion := response.Version
	result := r.db.WithContext(ctx).
		Model(&model.FeedbackResponse{}).
		Where("feedback_response_id = ? AND version = ?", response.FeedbackResponseID, oldVersion).
		Updates(map[string]interface{}{
			"giver":                  response.Giver,
			"giver_section":          response.GiverSection,
			"recipient":              response.Recipient,
			"recipient_section":      response.RecipientSection,
			"feedback_question_type": response.FeedbackQuestionType,
			"answer":                 response.Answer,
			"version":                oldVersion + 1,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return pkgerrors.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&model.FeedbackResponse{}).
			Where("feedback_response_id = ?", response.FeedbackResponseID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return pkgerrors.ErrOptimisticLock
	}
	response.Version = oldVersion + 1
	return nil
}

func (r *feedbackResponseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("feedback_response_id = ?", id).
		Delete(&model.FeedbackResponse{}).Error
}

func (r *feedbackResponseRepo) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&model.FeedbackResponse{})
	return result.RowsAffected, result.Error
}
