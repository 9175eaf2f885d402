package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"peer-feedback/backend/internal/model"
	pkgerrors "peer-feedback/backend/pkg/errors"
)

// FeedbackQuestionRepository 反馈题目数据访问接口（题目由会话管理模块维护，这里只读为主）
type FeedbackQuestionRepository interface {
	Create(ctx context.Context, question *model.FeedbackQuestion) error
	GetByID(ctx context.Context, id string) (*model.FeedbackQuestion, error)
	GetByNumber(ctx context.Context, courseID, sessionName string, number int) (*model.FeedbackQuestion, error)
	ListBySession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackQuestion, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.FeedbackQuestion, error)
}

type feedbackQuestionRepo struct {
	db *gorm.DB
}

// NewFeedbackQuestionRepo 创建 FeedbackQuestionRepository 实例
func NewFeedbackQuestionRepo(db *gorm.DB) FeedbackQuestionRepository {
	return &feedbackQuestionRepo{db: db}
}

func (r *feedbackQuestionRepo) Create(ctx context.Context, question *model.FeedbackQuestion) error {
	err := r.db.WithContext(ctx).Create(question).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrAlreadyExists
	}
	return err
}

func (r *feedbackQuestionRepo) GetByID(ctx context.Context, id string) (*model.FeedbackQuestion, error) {
	var question model.FeedbackQuestion
	err := r.db.WithContext(ctx).
		Where("feedback_question_id = ?", id).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *feedbackQuestionRepo) GetByNumber(ctx context.Context, courseID, sessionName string, number int) (*model.FeedbackQuestion, error) {
	var question model.FeedbackQuestion
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND feedback_session_name = ? AND question_number = ?", courseID, sessionName, number).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *feedbackQuestionRepo) ListBySession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackQuestion, error) {
	var questions []model.FeedbackQuestion
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND feedback_session_name = ?", courseID, sessionName).
		Order("question_number ASC").
		Find(&questions).Error
	return questions, err
}

func (r *feedbackQuestionRepo) ListByCourse(ctx context.Context, courseID string) ([]model.FeedbackQuestion, error) {
	var questions []model.FeedbackQuestion
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("feedback_session_name ASC, question_number ASC").
		Find(&questions).Error
	return questions, err
}
