package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"peer-feedback/backend/config"
	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/repository"
	pkgerrors "peer-feedback/backend/pkg/errors"
	"peer-feedback/backend/pkg/metrics"
)

// ── 反馈回复模块业务错误 ──

var (
	ErrFeedbackResponseNotFound = fmt.Errorf("feedback response: %w", pkgerrors.ErrNotFound)
	ErrFeedbackResponseExists   = fmt.Errorf("feedback response: %w", pkgerrors.ErrAlreadyExists)
	ErrFeedbackQuestionNotFound = fmt.Errorf("feedback question: %w", pkgerrors.ErrNotFound)
	ErrEnrollDetailsInvalid     = errors.New("名册变更参数无效")
	ErrCascadeInProgress        = errors.New("该学生的名册级联正在执行，请稍后重试")
)

// 级联操作名（日志与指标标签）
const (
	opTeamChange    = "team_change"
	opEmailChange   = "email_change"
	opStudentDelete = "student_delete"
	opCourseDelete  = "course_delete"
)

// CascadeLocker 按 (课程, 学生) 串行化批量级联；由 pkg/redis 实现
type CascadeLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// FeedbackResponseService 反馈回复业务接口
type FeedbackResponseService interface {
	// ── 可见性 ──
	GetViewableResponsesForQuestionInSection(ctx context.Context, question *model.FeedbackQuestion,
		viewer string, role model.UserRole, section *string) ([]model.FeedbackResponse, error)
	GetViewableResponseViews(ctx context.Context, courseID, questionID, viewer string, role model.UserRole,
		section *string) ([]dto.FeedbackResponseView, error)

	// ── 查询 ──
	GetFeedbackResponse(ctx context.Context, questionID, giver, recipient string) (*model.FeedbackResponse, error)
	GetFeedbackResponseByID(ctx context.Context, id string) (*model.FeedbackResponse, error)
	ListForReceiverForQuestion(ctx context.Context, questionID, recipient string) ([]model.FeedbackResponse, error)
	ListFromGiverForQuestion(ctx context.Context, questionID, giver string) ([]model.FeedbackResponse, error)
	ListForSession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackResponse, error)
	ListForReceiverForCourse(ctx context.Context, courseID, recipient string) ([]model.FeedbackResponse, error)
	ListFromGiverForCourse(ctx context.Context, courseID, giver string) ([]model.FeedbackResponse, error)

	// ── 写入 ──
	CreateFeedbackResponses(ctx context.Context, responses []*model.FeedbackResponse) error
	UpdateFeedbackResponse(ctx context.Context, response *model.FeedbackResponse) error
	DeleteResponseAndCascade(ctx context.Context, response *model.FeedbackResponse) error

	// ── 名册级联 ──
	UpdateResponseForChangingTeam(ctx context.Context, details *dto.StudentEnrollDetails, response *model.FeedbackResponse) (bool, error)
	UpdateResponsesForChangingTeam(ctx context.Context, courseID, email, oldTeam, newTeam string) (dto.CascadeResult, error)
	ApplyEnrollmentChange(ctx context.Context, details *dto.StudentEnrollDetails) (dto.CascadeResult, error)
	UpdateResponsesForChangingEmail(ctx context.Context, courseID, oldEmail, newEmail string) (dto.CascadeResult, error)
	DeleteResponsesForStudentAndCascade(ctx context.Context, courseID, email string) (dto.CascadeResult, error)
	DeleteResponsesForCourse(ctx context.Context, courseID string) error
}

type feedbackResponseService struct {
	cfg      *config.FeedbackConfig
	repo     *repository.Repository
	locker   CascadeLocker
	metrics  *metrics.CascadeMetrics
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFeedbackResponseService 创建 FeedbackResponseService 实例
// locker / m 可为 nil：分别表示不加锁、不采集指标
func NewFeedbackResponseService(
	cfg *config.FeedbackConfig,
	repo *repository.Repository,
	locker CascadeLocker,
	m *metrics.CascadeMetrics,
	logger *zap.Logger,
) FeedbackResponseService {
	return &feedbackResponseService{
		cfg:      cfg,
		repo:     repo,
		locker:   locker,
		metrics:  m,
		validate: validator.New(),
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// 可见性查询
// ═══════════════════════════════════════════════════════════

// GetViewableResponsesForQuestionInSection 查看者在该题下可见的回复
// role 只能是 student / instructor，否则 panic(*pkgerrors.ContractViolation)
func (s *feedbackResponseService) GetViewableResponsesForQuestionInSection(ctx context.Context,
	question *model.FeedbackQuestion, viewer string, role model.UserRole, section *string) ([]model.FeedbackResponse, error) {
	mustBeViewerRole(role)

	roster, err := LoadCourseRoster(ctx, s.repo, question.CourseID)
	if err != nil {
		s.logger.Error("加载课程名册失败", zap.String("course_id", question.CourseID), zap.Error(err))
		return nil, err
	}
	return s.viewableResponses(ctx, question, viewer, role, section, roster)
}

func (s *feedbackResponseService) viewableResponses(ctx context.Context, question *model.FeedbackQuestion,
	viewer string, role model.UserRole, section *string, roster *CourseRoster) ([]model.FeedbackResponse, error) {
	responses, err := s.repo.FeedbackResponse.ListByQuestion(ctx, question.FeedbackQuestionID)
	if err != nil {
		s.logger.Error("查询题目回复失败", zap.String("question_id", question.FeedbackQuestionID), zap.Error(err))
		return nil, err
	}
	return filterViewable(question, responses, viewer, role, section, roster), nil
}

// GetViewableResponseViews 可见回复 + 按姓名可见性脱敏
// 题目不属于 courseID 时按不存在处理
func (s *feedbackResponseService) GetViewableResponseViews(ctx context.Context, courseID, questionID, viewer string,
	role model.UserRole, section *string) ([]dto.FeedbackResponseView, error) {
	mustBeViewerRole(role)

	question, err := s.getQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.CourseID != courseID {
		return nil, fmt.Errorf("%w: id=%s", ErrFeedbackQuestionNotFound, questionID)
	}
	roster, err := LoadCourseRoster(ctx, s.repo, question.CourseID)
	if err != nil {
		s.logger.Error("加载课程名册失败", zap.String("course_id", question.CourseID), zap.Error(err))
		return nil, err
	}
	responses, err := s.viewableResponses(ctx, question, viewer, role, section, roster)
	if err != nil {
		return nil, err
	}

	views := make([]dto.FeedbackResponseView, 0, len(responses))
	for i := range responses {
		views = append(views, toResponseView(question, &responses[i], viewer, role, roster))
	}
	return views, nil
}

// toResponseView 姓名不可见时同时隐藏标识
func toResponseView(question *model.FeedbackQuestion, r *model.FeedbackResponse,
	viewer string, role model.UserRole, roster *CourseRoster) dto.FeedbackResponseView {
	v := dto.FeedbackResponseView{
		ID:               r.FeedbackResponseID,
		QuestionID:       r.FeedbackQuestionID,
		Giver:            r.Giver,
		GiverSection:     r.GiverSection,
		Recipient:        r.Recipient,
		RecipientSection: r.RecipientSection,
		Answer:           r.Answer,
		UpdatedAt:        r.UpdatedAt,
	}
	if IsNameVisibleToUser(question, r, viewer, role, true, roster) {
		v.GiverName = displayName(roster, question.GiverOf(r))
	} else {
		v.Giver, v.GiverName = "", dto.AnonymousGiver
	}
	if IsNameVisibleToUser(question, r, viewer, role, false, roster) {
		v.RecipientName = displayName(roster, question.RecipientOf(r))
	} else {
		v.Recipient, v.RecipientName = "", dto.AnonymousRecipient
	}
	return v
}

// displayName 名册中查不到时回退为原始标识
func displayName(roster *CourseRoster, p model.Participant) string {
	if name, ok := roster.NameOf(p); ok {
		return name
	}
	return p.ID
}

func (s *feedbackResponseService) getQuestion(ctx context.Context, id string) (*model.FeedbackQuestion, error) {
	q, err := s.repo.FeedbackQuestion.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrFeedbackQuestionNotFound, id)
		}
		s.logger.Error("查询题目失败", zap.String("question_id", id), zap.Error(err))
		return nil, err
	}
	return q, nil
}

// ═══════════════════════════════════════════════════════════
// 查询
// ═══════════════════════════════════════════════════════════

func (s *feedbackResponseService) GetFeedbackResponse(ctx context.Context, questionID, giver, recipient string) (*model.FeedbackResponse, error) {
	r, err := s.repo.FeedbackResponse.Find(ctx, questionID, giver, recipient)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			key := model.ResponseKey{QuestionID: questionID, Giver: giver, Recipient: recipient}
			return nil, fmt.Errorf("%w: %s", ErrFeedbackResponseNotFound, key)
		}
		return nil, err
	}
	return r, nil
}

func (s *feedbackResponseService) GetFeedbackResponseByID(ctx context.Context, id string) (*model.FeedbackResponse, error) {
	r, err := s.repo.FeedbackResponse.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrFeedbackResponseNotFound, id)
		}
		return nil, err
	}
	return r, nil
}

func (s *feedbackResponseService) ListForReceiverForQuestion(ctx context.Context, questionID, recipient string) ([]model.FeedbackResponse, error) {
	return s.repo.FeedbackResponse.ListByReceiverForQuestion(ctx, questionID, recipient)
}

func (s *feedbackResponseService) ListFromGiverForQuestion(ctx context.Context, questionID, giver string) ([]model.FeedbackResponse, error) {
	return s.repo.FeedbackResponse.ListByGiverForQuestion(ctx, questionID, giver)
}

func (s *feedbackResponseService) ListForSession(ctx context.Context, courseID, sessionName string) ([]model.FeedbackResponse, error) {
	return s.repo.FeedbackResponse.ListBySession(ctx, courseID, sessionName)
}

func (s *feedbackResponseService) ListForReceiverForCourse(ctx context.Context, courseID, recipient string) ([]model.FeedbackResponse, error) {
	return s.repo.FeedbackResponse.ListByReceiverForCourse(ctx, courseID, recipient)
}

func (s *feedbackResponseService) ListFromGiverForCourse(ctx context.Context, courseID, giver string) ([]model.FeedbackResponse, error) {
	return s.repo.FeedbackResponse.ListByGiverForCourse(ctx, courseID, giver)
}

// ═══════════════════════════════════════════════════════════
// 写入
// ═══════════════════════════════════════════════════════════

// CreateFeedbackResponses 同一事务内批量创建，遇到重复键整体回滚
// 题目必须属于回复所在的课程与会话，题型取自题目；每位提交者登记为所在会话的作答者
func (s *feedbackResponseService) CreateFeedbackResponses(ctx context.Context, responses []*model.FeedbackResponse) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		questions := make(map[string]*model.FeedbackQuestion)
		for _, r := range responses {
			q, ok := questions[r.FeedbackQuestionID]
			if !ok {
				var err error
				if q, err = tx.FeedbackQuestion.GetByID(ctx, r.FeedbackQuestionID); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: id=%s", ErrFeedbackQuestionNotFound, r.FeedbackQuestionID)
					}
					return err
				}
				questions[r.FeedbackQuestionID] = q
			}
			if q.CourseID != r.CourseID || q.FeedbackSessionName != r.FeedbackSessionName {
				return fmt.Errorf("%w: id=%s course=%s session=%s",
					ErrFeedbackQuestionNotFound, r.FeedbackQuestionID, r.CourseID, r.FeedbackSessionName)
			}
			r.FeedbackQuestionType = q.QuestionType
			if r.GiverSection == "" {
				r.GiverSection = "None"
			}
			if r.RecipientSection == "" {
				r.RecipientSection = "None"
			}
			if err := tx.FeedbackResponse.Create(ctx, r); err != nil {
				if errors.Is(err, pkgerrors.ErrAlreadyExists) {
					return fmt.Errorf("%w: %s", ErrFeedbackResponseExists, r.Key())
				}
				return err
			}
			isInstructor, err := isCourseInstructor(ctx, tx, r.CourseID, r.Giver)
			if err != nil {
				return err
			}
			if err := addRespondent(ctx, tx, r.Giver, r.FeedbackSessionName, r.CourseID, isInstructor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrFeedbackResponseExists) && !errors.Is(err, ErrFeedbackQuestionNotFound) {
		s.logger.Error("批量创建回复失败", zap.Int("count", len(responses)), zap.Error(err))
	}
	return err
}

// UpdateFeedbackResponse 按 ID 更新回复
// 空字段沿用原值；会话、课程、题目不可修改；键冲突时原记录保持不变
func (s *feedbackResponseService) UpdateFeedbackResponse(ctx context.Context, response *model.FeedbackResponse) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return s.updateResponse(ctx, tx, response)
	})
}

func (s *feedbackResponseService) updateResponse(ctx context.Context, repo *repository.Repository, response *model.FeedbackResponse) error {
	existing, err := repo.FeedbackResponse.GetByID(ctx, response.FeedbackResponseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("trying to update a feedback response that does not exist: %w (id=%s)",
				ErrFeedbackResponseNotFound, response.FeedbackResponseID)
		}
		return err
	}

	merged := mergeResponse(existing, response)
	if merged.Key() != existing.Key() {
		clash, err := repo.FeedbackResponse.Find(ctx, merged.FeedbackQuestionID, merged.Giver, merged.Recipient)
		if err == nil && clash.FeedbackResponseID != merged.FeedbackResponseID {
			return fmt.Errorf("trying to create a feedback response that exists: %w (%s)", ErrFeedbackResponseExists, merged.Key())
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	if err := repo.FeedbackResponse.Update(ctx, merged); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrAlreadyExists):
			return fmt.Errorf("trying to create a feedback response that exists: %w (%s)", ErrFeedbackResponseExists, merged.Key())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("trying to update a feedback response that does not exist: %w (id=%s)",
				ErrFeedbackResponseNotFound, merged.FeedbackResponseID)
		}
		return err
	}

	// 提交者变更时作答名单随之调整
	if merged.Giver != existing.Giver {
		isInstructor, err := isCourseInstructor(ctx, repo, merged.CourseID, merged.Giver)
		if err != nil {
			return err
		}
		if err := addRespondent(ctx, repo, merged.Giver, merged.FeedbackSessionName, merged.CourseID, isInstructor); err != nil {
			return err
		}
		if _, err := removeRespondentIfNoResponsesLeft(ctx, repo, existing.Giver, existing.FeedbackSessionName, existing.CourseID); err != nil {
			return err
		}
	}

	*response = *merged
	return nil
}

// isCourseInstructor 提交者是否为课程教师，决定登记到哪份作答名单
func isCourseInstructor(ctx context.Context, repo *repository.Repository, courseID, email string) (bool, error) {
	_, err := repo.Instructor.GetByEmail(ctx, courseID, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	}
	return false, err
}

// mergeResponse 以 existing 为底，覆盖 update 中的非空可变字段
func mergeResponse(existing, update *model.FeedbackResponse) *model.FeedbackResponse {
	merged := *existing
	if update.Giver != "" {
		merged.Giver = update.Giver
	}
	if update.Recipient != "" {
		merged.Recipient = update.Recipient
	}
	if update.GiverSection != "" {
		merged.GiverSection = update.GiverSection
	}
	if update.RecipientSection != "" {
		merged.RecipientSection = update.RecipientSection
	}
	if update.Answer != "" {
		merged.Answer = update.Answer
	}
	if update.Version != 0 {
		merged.Version = update.Version
	}
	return &merged
}

// DeleteResponseAndCascade 单条回复的删除原语：评论 → 回复 → 作答名单，同一事务
func (s *feedbackResponseService) DeleteResponseAndCascade(ctx context.Context, response *model.FeedbackResponse) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return deleteResponseAndCascade(ctx, tx, response)
	})
}

func deleteResponseAndCascade(ctx context.Context, repo *repository.Repository, response *model.FeedbackResponse) error {
	if _, err := repo.FeedbackComment.DeleteByResponse(ctx, response.FeedbackResponseID); err != nil {
		return fmt.Errorf("删除回复评论失败: %w", err)
	}
	if err := repo.FeedbackResponse.Delete(ctx, response.FeedbackResponseID); err != nil {
		return fmt.Errorf("删除回复失败: %w", err)
	}
	if _, err := removeRespondentIfNoResponsesLeft(ctx, repo, response.Giver, response.FeedbackSessionName, response.CourseID); err != nil {
		return err
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 名册级联：团队 / 分区变更
// ═══════════════════════════════════════════════════════════

// UpdateResponseForChangingTeam 单条回复的团队变更规则，返回是否已删除
//   - 学生是提交者，且 giverType 或 recipientType 与团队相关 → 删除
//   - 学生是接收者，且 recipientType 与团队相关 → 删除
//   - 其余情况仅在分区变化时刷新分区字段（评论分区随之更新）
func (s *feedbackResponseService) UpdateResponseForChangingTeam(ctx context.Context,
	details *dto.StudentEnrollDetails, response *model.FeedbackResponse) (bool, error) {
	question, err := s.getQuestion(ctx, response.FeedbackQuestionID)
	if err != nil {
		return false, err
	}
	deleted, _, err := s.updateResponseForChangingTeam(ctx, details, question, response)
	return deleted, err
}

// updateResponseForChangingTeam 返回 (是否删除, 是否更新分区, error)
func (s *feedbackResponseService) updateResponseForChangingTeam(ctx context.Context,
	details *dto.StudentEnrollDetails, question *model.FeedbackQuestion, response *model.FeedbackResponse) (bool, bool, error) {
	isGiver := response.Giver == details.Email
	isRecipient := !question.RecipientType.IsTeam() && response.Recipient == details.Email

	if details.TeamChanged() {
		giverSideStale := isGiver && (question.GiverType.IsTeamRelative() || question.RecipientType.IsTeamRelative())
		recipientSideStale := isRecipient && question.RecipientType.IsTeamRelative()
		if giverSideStale || recipientSideStale {
			if err := s.DeleteResponseAndCascade(ctx, response); err != nil {
				return false, false, err
			}
			return true, false, nil
		}
	}

	if !details.SectionChanged() {
		return false, false, nil
	}
	if isGiver {
		response.GiverSection = details.NewSection
	}
	if isRecipient {
		response.RecipientSection = details.NewSection
	}
	if !isGiver && !isRecipient {
		return false, false, nil
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.FeedbackResponse.Update(ctx, response); err != nil {
			return err
		}
		return tx.FeedbackComment.UpdateSectionsForResponse(ctx,
			response.FeedbackResponseID, response.GiverSection, response.RecipientSection)
	})
	if err != nil {
		return false, false, err
	}
	return false, true, nil
}

// UpdateResponsesForChangingTeam 批量团队变更（分区不变）
func (s *feedbackResponseService) UpdateResponsesForChangingTeam(ctx context.Context,
	courseID, email, oldTeam, newTeam string) (dto.CascadeResult, error) {
	return s.ApplyEnrollmentChange(ctx, &dto.StudentEnrollDetails{
		UpdateStatus: dto.EnrollModified,
		Course:       courseID,
		Email:        email,
		OldTeam:      oldTeam,
		NewTeam:      newTeam,
	})
}

// ApplyEnrollmentChange 选课变更入口：校验后一次性完成团队与分区级联
// 仅 MODIFIED 状态会触发级联
func (s *feedbackResponseService) ApplyEnrollmentChange(ctx context.Context, details *dto.StudentEnrollDetails) (dto.CascadeResult, error) {
	if err := s.validate.Struct(details); err != nil {
		return dto.CascadeResult{}, fmt.Errorf("%w: %v", ErrEnrollDetailsInvalid, err)
	}
	if details.UpdateStatus != dto.EnrollModified || (!details.TeamChanged() && !details.SectionChanged()) {
		return dto.CascadeResult{}, nil
	}

	var result dto.CascadeResult
	err := s.withCascade(ctx, opTeamChange, details.Course, details.Email, &result, func() error {
		return s.applyTeamChange(ctx, details, &result)
	})
	return result, err
}

func (s *feedbackResponseService) applyTeamChange(ctx context.Context, details *dto.StudentEnrollDetails, result *dto.CascadeResult) error {
	questions, err := s.questionsByID(ctx, details.Course)
	if err != nil {
		return err
	}
	responses, err := s.responsesInvolving(ctx, details.Course, details.Email)
	if err != nil {
		return err
	}

	for i := range responses {
		r := &responses[i]
		q, ok := questions[r.FeedbackQuestionID]
		if !ok {
			// 题目已被删除的孤立回复不处理
			continue
		}
		deleted, updated, err := s.updateResponseForChangingTeam(ctx, details, q, r)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("单条回复团队级联失败，继续处理",
				zap.String("response_id", r.FeedbackResponseID), zap.Error(err))
		case deleted:
			result.Deleted++
		case updated:
			result.Updated++
		}
	}

	if details.TeamChanged() && details.OldTeam != "" {
		purge, err := s.shouldPurgeTeamResponses(ctx, details.Course, details.OldTeam, details.Email)
		if err != nil {
			return err
		}
		if purge {
			result.Add(s.deleteResponsesToTeam(ctx, details.Course, details.OldTeam, questions))
		}
	}
	return nil
}

// shouldPurgeTeamResponses 发往旧团队的回复是否需要删除（受 team_response_policy 控制）
func (s *feedbackResponseService) shouldPurgeTeamResponses(ctx context.Context, courseID, team, leaving string) (bool, error) {
	if s.cfg != nil && s.cfg.TeamResponsePolicy == config.TeamResponsePolicyAlways {
		return true, nil
	}
	members, err := s.repo.Student.ListByTeam(ctx, courseID, team)
	if err != nil {
		return false, fmt.Errorf("查询团队成员失败: %w", err)
	}
	for _, m := range members {
		if m.Email != leaving {
			return false, nil
		}
	}
	return true, nil
}

// deleteResponsesToTeam 删除接收方为该团队的团队题回复
func (s *feedbackResponseService) deleteResponsesToTeam(ctx context.Context, courseID, team string,
	questions map[string]*model.FeedbackQuestion) dto.CascadeResult {
	var result dto.CascadeResult
	responses, err := s.repo.FeedbackResponse.ListByReceiverForCourse(ctx, courseID, team)
	if err != nil {
		s.logger.Warn("查询团队回复失败", zap.String("team", team), zap.Error(err))
		result.Failed++
		return result
	}
	for i := range responses {
		r := &responses[i]
		q, ok := questions[r.FeedbackQuestionID]
		if !ok || !q.RecipientType.IsTeam() {
			continue
		}
		if err := s.DeleteResponseAndCascade(ctx, r); err != nil {
			result.Failed++
			s.logger.Warn("删除团队回复失败，继续处理",
				zap.String("response_id", r.FeedbackResponseID), zap.Error(err))
			continue
		}
		result.Deleted++
	}
	return result
}

// ═══════════════════════════════════════════════════════════
// 名册级联：邮箱变更
// ═══════════════════════════════════════════════════════════

// UpdateResponsesForChangingEmail 原地改写提交者 / 接收者邮箱，回复 ID 不变，评论不受影响
// 改写前先整体检查键冲突，存在冲突时不做任何修改
func (s *feedbackResponseService) UpdateResponsesForChangingEmail(ctx context.Context,
	courseID, oldEmail, newEmail string) (dto.CascadeResult, error) {
	var result dto.CascadeResult
	if oldEmail == newEmail {
		return result, nil
	}
	err := s.withCascade(ctx, opEmailChange, courseID, oldEmail, &result, func() error {
		questions, err := s.questionsByID(ctx, courseID)
		if err != nil {
			return err
		}
		responses, err := s.responsesInvolving(ctx, courseID, oldEmail)
		if err != nil {
			return err
		}

		rewritten := make([]model.FeedbackResponse, 0, len(responses))
		seen := make(map[model.ResponseKey]bool, len(responses))
		for _, r := range responses {
			nr := r
			if nr.Giver == oldEmail {
				nr.Giver = newEmail
			}
			if q, ok := questions[nr.FeedbackQuestionID]; nr.Recipient == oldEmail && (!ok || !q.RecipientType.IsTeam()) {
				nr.Recipient = newEmail
			}
			key := nr.Key()
			if seen[key] {
				return fmt.Errorf("%w: %s", ErrFeedbackResponseExists, key)
			}
			seen[key] = true
			clash, err := s.repo.FeedbackResponse.Find(ctx, key.QuestionID, key.Giver, key.Recipient)
			if err == nil && clash.FeedbackResponseID != nr.FeedbackResponseID {
				return fmt.Errorf("%w: %s", ErrFeedbackResponseExists, key)
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			rewritten = append(rewritten, nr)
		}

		for i := range rewritten {
			if err := s.repo.FeedbackResponse.Update(ctx, &rewritten[i]); err != nil {
				result.Failed++
				s.logger.Warn("改写回复邮箱失败，继续处理",
					zap.String("response_id", rewritten[i].FeedbackResponseID), zap.Error(err))
				continue
			}
			result.Updated++
		}

		if err := s.repo.SessionRespondent.Rename(ctx, courseID, oldEmail, newEmail); err != nil {
			return fmt.Errorf("作答名单改名失败: %w", err)
		}
		return nil
	})
	return result, err
}

// ═══════════════════════════════════════════════════════════
// 名册级联：删除学生 / 课程
// ═══════════════════════════════════════════════════════════

// DeleteResponsesForStudentAndCascade 删除学生作为提交者或接收者的全部回复
// 学生是团队最后一名成员时，发往该团队的回复一并删除；重复执行无副作用
func (s *feedbackResponseService) DeleteResponsesForStudentAndCascade(ctx context.Context, courseID, email string) (dto.CascadeResult, error) {
	var result dto.CascadeResult
	err := s.withCascade(ctx, opStudentDelete, courseID, email, &result, func() error {
		responses, err := s.responsesInvolving(ctx, courseID, email)
		if err != nil {
			return err
		}
		for i := range responses {
			if err := s.DeleteResponseAndCascade(ctx, &responses[i]); err != nil {
				result.Failed++
				s.logger.Warn("删除学生回复失败，继续处理",
					zap.String("response_id", responses[i].FeedbackResponseID), zap.Error(err))
				continue
			}
			result.Deleted++
		}

		student, err := s.repo.Student.GetByEmail(ctx, courseID, email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 名册中已无该学生，无法确定团队
		}
		if err != nil {
			return fmt.Errorf("查询学生失败: %w", err)
		}
		lastMember, err := s.isLastTeamMember(ctx, courseID, student.Team, email)
		if err != nil {
			return err
		}
		if lastMember {
			questions, err := s.questionsByID(ctx, courseID)
			if err != nil {
				return err
			}
			result.Add(s.deleteResponsesToTeam(ctx, courseID, student.Team, questions))
		}
		return nil
	})
	return result, err
}

func (s *feedbackResponseService) isLastTeamMember(ctx context.Context, courseID, team, email string) (bool, error) {
	members, err := s.repo.Student.ListByTeam(ctx, courseID, team)
	if err != nil {
		return false, fmt.Errorf("查询团队成员失败: %w", err)
	}
	for _, m := range members {
		if m.Email != email {
			return false, nil
		}
	}
	return true, nil
}

// DeleteResponsesForCourse 删除课程内全部回复、评论与作答名单，其他课程不受影响
func (s *feedbackResponseService) DeleteResponsesForCourse(ctx context.Context, courseID string) error {
	started := time.Now()
	var deleted int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.FeedbackComment.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		n, err := tx.FeedbackResponse.DeleteByCourse(ctx, courseID)
		if err != nil {
			return err
		}
		deleted = n
		_, err = tx.SessionRespondent.DeleteByCourse(ctx, courseID)
		return err
	})
	if err != nil {
		s.metrics.Observe(opCourseDelete, metrics.OutcomeError, started, 0, 0, 0)
		s.logger.Error("删除课程回复失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	s.metrics.Observe(opCourseDelete, metrics.OutcomeOK, started, int(deleted), 0, 0)
	s.logger.Info("课程回复已删除", zap.String("course_id", courseID), zap.Int64("deleted", deleted))
	return nil
}

// ── 级联辅助 ──

// withCascade 加锁、记录指标与汇总日志
func (s *feedbackResponseService) withCascade(ctx context.Context, op, courseID, email string,
	result *dto.CascadeResult, fn func() error) error {
	started := time.Now()

	release, err := s.lock(ctx, courseID, email)
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeBusy, started, 0, 0, 0)
		return err
	}
	defer release()

	err = fn()
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case result.Failed > 0:
		outcome = metrics.OutcomePartial
	}
	s.metrics.Observe(op, outcome, started, result.Deleted, result.Updated, result.Failed)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("course_id", courseID),
		zap.String("email", email),
		zap.Int("deleted", result.Deleted),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	}
	if err != nil {
		s.logger.Error("名册级联失败", append(fields, zap.Error(err))...)
		return err
	}
	s.logger.Info("名册级联完成", fields...)
	return nil
}

// lock 获取 (课程, 学生) 级联锁；Redis 不可用时降级为不加锁
func (s *feedbackResponseService) lock(ctx context.Context, courseID, email string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	ttl := 30 * time.Second
	if s.cfg != nil && s.cfg.CascadeLockTTL > 0 {
		ttl = s.cfg.CascadeLockTTL
	}
	key := courseID + ":" + email
	token, ok, err := s.locker.AcquireLock(ctx, key, ttl)
	if err != nil {
		s.logger.Warn("获取级联锁失败，降级为不加锁", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, ErrCascadeInProgress
	}
	return func() {
		// 请求上下文可能已取消，释放锁使用独立上下文
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.locker.ReleaseLock(releaseCtx, key, token)
	}, nil
}

// questionsByID 课程内全部题目，按 ID 索引
func (s *feedbackResponseService) questionsByID(ctx context.Context, courseID string) (map[string]*model.FeedbackQuestion, error) {
	questions, err := s.repo.FeedbackQuestion.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("查询课程题目失败: %w", err)
	}
	byID := make(map[string]*model.FeedbackQuestion, len(questions))
	for i := range questions {
		byID[questions[i].FeedbackQuestionID] = &questions[i]
	}
	return byID, nil
}

// responsesInvolving 学生作为提交者或接收者的全部回复（按 ID 去重）
func (s *feedbackResponseService) responsesInvolving(ctx context.Context, courseID, email string) ([]model.FeedbackResponse, error) {
	given, err := s.repo.FeedbackResponse.ListByGiverForCourse(ctx, courseID, email)
	if err != nil {
		return nil, fmt.Errorf("查询学生提交的回复失败: %w", err)
	}
	received, err := s.repo.FeedbackResponse.ListByReceiverForCourse(ctx, courseID, email)
	if err != nil {
		return nil, fmt.Errorf("查询学生收到的回复失败: %w", err)
	}
	seen := make(map[string]bool, len(given)+len(received))
	out := make([]model.FeedbackResponse, 0, len(given)+len(received))
	for _, list := range [][]model.FeedbackResponse{given, received} {
		for _, r := range list {
			if seen[r.FeedbackResponseID] {
				continue
			}
			seen[r.FeedbackResponseID] = true
			out = append(out, r)
		}
	}
	return out, nil
}
