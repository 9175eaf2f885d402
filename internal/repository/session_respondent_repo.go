package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peer-feedback/backend/internal/model"
)

// SessionRespondentRepository 会话已作答名单数据访问接口
type SessionRespondentRepository interface {
	List(ctx context.Context, courseID, sessionName string) ([]model.FeedbackSessionRespondent, error)
	Add(ctx context.Context, respondent *model.FeedbackSessionRespondent) error
	Remove(ctx context.Context, courseID, sessionName, email string) (bool, error)
	Rename(ctx context.Context, courseID, oldEmail, newEmail string) error
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

type sessionRespondentRepo struct {
	db *gorm.DB
}

// NewSessionRespondentRepo 创建 SessionRespondentRepository 实例
func NewSessionRespondentRepo(db *gorm.DB) SessionRespondentRepository {
	return &sessionRespondentRepo{db: db}
}

func (r *sessionRespondentRepo) List(ctx context.Context, courseID, sessionName string) ([]model.FeedbackSessionRespondent, error) {
	var respondents []model.FeedbackSessionRespondent
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND feedback_session_name = ?", courseID, sessionName).
		Order("email ASC").
		Find(&respondents).Error
	return respondents, err
}

// Add 已在名单中时不做任何事
func (r *sessionRespondentRepo) Add(ctx context.Context, respondent *model.FeedbackSessionRespondent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(respondent).Error
}

// Remove 返回是否确有记录被移除
func (r *sessionRespondentRepo) Remove(ctx context.Context, courseID, sessionName, email string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND feedback_session_name = ? AND email = ?", courseID, sessionName, email).
		Delete(&model.FeedbackSessionRespondent{})
	return result.RowsAffected > 0, result.Error
}

// Rename 将课程内所有会话名单中的 oldEmail 替换为 newEmail
// 新邮箱已在某会话名单中时，直接移除该会话的旧记录
func (r *sessionRespondentRepo) Rename(ctx context.Context, courseID, oldEmail, newEmail string) error {
	db := r.db.WithContext(ctx)
	existing := db.Model(&model.FeedbackSessionRespondent{}).
		Select("feedback_session_name").
		Where("course_id = ? AND email = ?", courseID, newEmail)
	if err := db.
		Where("course_id = ? AND email = ? AND feedback_session_name IN (?)", courseID, oldEmail, existing).
		Delete(&model.FeedbackSessionRespondent{}).Error; err != nil {
		return err
	}
	return db.Model(&model.FeedbackSessionRespondent{}).
		Where("course_id = ? AND email = ?", courseID, oldEmail).
		Update("email", newEmail).Error
}

func (r *sessionRespondentRepo) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&model.FeedbackSessionRespondent{})
	return result.RowsAffected, result.Error
}
