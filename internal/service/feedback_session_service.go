package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/repository"
)

// FeedbackSessionService 会话作答率业务接口
// 作答率 = 已作答学生数 + 已作答教师数
type FeedbackSessionService interface {
	AddRespondent(ctx context.Context, email, sessionName, courseID string, isInstructor bool) error
	RemoveRespondentIfNoResponsesLeft(ctx context.Context, email, sessionName, courseID string) (bool, error)
	GetRespondingLists(ctx context.Context, sessionName, courseID string) (*dto.RespondingLists, error)
	GetResponseRate(ctx context.Context, sessionName, courseID string) (int, error)
	ReplaceRespondent(ctx context.Context, courseID, oldEmail, newEmail string) error
}

type feedbackSessionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFeedbackSessionService 创建 FeedbackSessionService 实例
func NewFeedbackSessionService(repo *repository.Repository, logger *zap.Logger) FeedbackSessionService {
	return &feedbackSessionService{repo: repo, logger: logger}
}

// ────────────────────── AddRespondent ──────────────────────

func (s *feedbackSessionService) AddRespondent(ctx context.Context, email, sessionName, courseID string, isInstructor bool) error {
	if err := addRespondent(ctx, s.repo, email, sessionName, courseID, isInstructor); err != nil {
		s.logger.Error("登记作答者失败",
			zap.String("course_id", courseID), zap.String("session", sessionName), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── RemoveRespondentIfNoResponsesLeft ──────────────────────

func (s *feedbackSessionService) RemoveRespondentIfNoResponsesLeft(ctx context.Context, email, sessionName, courseID string) (bool, error) {
	removed, err := removeRespondentIfNoResponsesLeft(ctx, s.repo, email, sessionName, courseID)
	if err != nil {
		s.logger.Error("移除作答者失败",
			zap.String("course_id", courseID), zap.String("session", sessionName), zap.Error(err))
		return false, err
	}
	return removed, nil
}

// ────────────────────── GetRespondingLists / GetResponseRate ──────────────────────

func (s *feedbackSessionService) GetRespondingLists(ctx context.Context, sessionName, courseID string) (*dto.RespondingLists, error) {
	rows, err := s.repo.SessionRespondent.List(ctx, courseID, sessionName)
	if err != nil {
		s.logger.Error("查询作答名单失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	lists := &dto.RespondingLists{Students: []string{}, Instructors: []string{}}
	for _, row := range rows {
		if row.IsInstructor {
			lists.Instructors = append(lists.Instructors, row.Email)
		} else {
			lists.Students = append(lists.Students, row.Email)
		}
	}
	return lists, nil
}

func (s *feedbackSessionService) GetResponseRate(ctx context.Context, sessionName, courseID string) (int, error) {
	lists, err := s.GetRespondingLists(ctx, sessionName, courseID)
	if err != nil {
		return 0, err
	}
	return len(lists.Students) + len(lists.Instructors), nil
}

// ────────────────────── ReplaceRespondent ──────────────────────

// ReplaceRespondent 学生邮箱变更后，课程内所有会话名单同步改名
func (s *feedbackSessionService) ReplaceRespondent(ctx context.Context, courseID, oldEmail, newEmail string) error {
	if err := s.repo.SessionRespondent.Rename(ctx, courseID, oldEmail, newEmail); err != nil {
		s.logger.Error("作答名单改名失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// ── 供级联事务复用（repo 可为事务内聚合） ──

func addRespondent(ctx context.Context, repo *repository.Repository, email, sessionName, courseID string, isInstructor bool) error {
	return repo.SessionRespondent.Add(ctx, &model.FeedbackSessionRespondent{
		CourseID:            courseID,
		FeedbackSessionName: sessionName,
		Email:               email,
		IsInstructor:        isInstructor,
	})
}

// removeRespondentIfNoResponsesLeft 重新统计该提交者在会话中剩余的回复数，为 0 时才移出名单
func removeRespondentIfNoResponsesLeft(ctx context.Context, repo *repository.Repository, email, sessionName, courseID string) (bool, error) {
	left, err := repo.FeedbackResponse.CountByGiverInSession(ctx, courseID, sessionName, email)
	if err != nil {
		return false, fmt.Errorf("统计剩余回复失败: %w", err)
	}
	if left > 0 {
		return false, nil
	}
	return repo.SessionRespondent.Remove(ctx, courseID, sessionName, email)
}
