package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"peer-feedback/backend/config"
	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/repository"
)

// ── 测试数据：典型课程 ──
//
//	Team 1.1 (Section 1): student1 ~ student4
//	Team 1.2 (Section 2): student5
//	instructor1, instructor2
//
// 会话 "First feedback session"：
//
//	qn1  STUDENTS → SELF                 回复仅教师可见
//	qn2  STUDENTS → STUDENTS             回复对教师 / 接收者可见
//	qn3  STUDENTS → TEAMS                回复对教师 / 接收团队 / 提交者队友可见
//	qn4  TEAMS    → OWN_TEAM_MEMBERS     团队题
//
// 会话 "Grace Period Session"：
//
//	qn1  STUDENTS → SELF

const (
	course1      = "idOfTypicalCourse1"
	course2      = "idOfTypicalCourse2"
	session1     = "First feedback session"
	graceSession = "Grace Period Session"

	student1 = "student1InCourse1@gmail.tmt"
	student2 = "student2InCourse1@gmail.tmt"
	student3 = "student3InCourse1@gmail.tmt"
	student4 = "student4InCourse1@gmail.tmt"
	student5 = "student5InCourse1@gmail.tmt"

	instructor1 = "instructor1@course1.tmt"
	instructor2 = "instructor2@course1.tmt"

	team11   = "Team 1.1"
	team12   = "Team 1.2"
	section1 = "Section 1"
	section2 = "Section 2"
)

type testEnv struct {
	repo        *repository.Repository
	students    *mockStudentRepo
	instructors *mockInstructorRepo
	questions   *mockQuestionRepo
	responses   *mockResponseRepo
	comments    *mockCommentRepo
	respondents *mockRespondentRepo
	locker      *mockLocker
	cfg         *config.FeedbackConfig
}

func newTestEnv() *testEnv {
	env := &testEnv{
		students:    newMockStudentRepo(),
		instructors: newMockInstructorRepo(),
		questions:   newMockQuestionRepo(),
		responses:   newMockResponseRepo(),
		comments:    newMockCommentRepo(),
		respondents: newMockRespondentRepo(),
		locker:      newMockLocker(),
		cfg: &config.FeedbackConfig{
			TeamResponsePolicy: config.TeamResponsePolicyEmptyTeam,
		},
	}
	env.repo = &repository.Repository{
		Student:           env.students,
		Instructor:        env.instructors,
		FeedbackQuestion:  env.questions,
		FeedbackResponse:  env.responses,
		FeedbackComment:   env.comments,
		SessionRespondent: env.respondents,
	}
	return env
}

func (e *testEnv) responseService() FeedbackResponseService {
	return NewFeedbackResponseService(e.cfg, e.repo, e.locker, nil, zap.NewNop())
}

func (e *testEnv) sessionService() FeedbackSessionService {
	return NewFeedbackSessionService(e.repo, zap.NewNop())
}

// seedTypicalCourse 写入名册与题目
func (e *testEnv) seedTypicalCourse(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []model.Student{
		{CourseID: course1, Email: student1, Name: "student1 In Course1", Team: team11, Section: section1},
		{CourseID: course1, Email: student2, Name: "student2 In Course1", Team: team11, Section: section1},
		{CourseID: course1, Email: student3, Name: "student3 In Course1", Team: team11, Section: section1},
		{CourseID: course1, Email: student4, Name: "student4 In Course1", Team: team11, Section: section1},
		{CourseID: course1, Email: student5, Name: "student5 In Course1", Team: team12, Section: section2},
	} {
		s := s
		if err := e.students.Create(ctx, &s); err != nil {
			t.Fatalf("写入学生失败: %v", err)
		}
	}
	for _, i := range []model.Instructor{
		{CourseID: course1, Email: instructor1, Name: "Instructor1 Course1"},
		{CourseID: course1, Email: instructor2, Name: "Instructor2 Course1"},
	} {
		i := i
		if err := e.instructors.Create(ctx, &i); err != nil {
			t.Fatalf("写入教师失败: %v", err)
		}
	}

	for _, q := range []*model.FeedbackQuestion{
		newQuestion("qn1", session1, 1, model.ParticipantStudents, model.ParticipantSelf,
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors}),
		newQuestion("qn2", session1, 2, model.ParticipantStudents, model.ParticipantStudents,
			model.ParticipantTypes{model.ParticipantInstructors, model.ParticipantReceiver},
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors, model.ParticipantReceiver}),
		newQuestion("qn3", session1, 3, model.ParticipantStudents, model.ParticipantTeams,
			model.ParticipantTypes{model.ParticipantInstructors, model.ParticipantReceiver, model.ParticipantOwnTeamMembers},
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors, model.ParticipantReceiver}),
		newQuestion("qn4", session1, 4, model.ParticipantTeams, model.ParticipantOwnTeamMembers,
			model.ParticipantTypes{model.ParticipantInstructors, model.ParticipantReceiver},
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors}),
		newQuestion("gqn1", graceSession, 1, model.ParticipantStudents, model.ParticipantSelf,
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors},
			model.ParticipantTypes{model.ParticipantInstructors}),
	} {
		if err := e.questions.Create(ctx, q); err != nil {
			t.Fatalf("写入题目失败: %v", err)
		}
	}
}

func newQuestion(id, session string, number int, giver, recipient model.FeedbackParticipantType,
	showResponses, showGiver, showRecipient model.ParticipantTypes) *model.FeedbackQuestion {
	return &model.FeedbackQuestion{
		FeedbackQuestionID:  id,
		FeedbackSessionName: session,
		CourseID:            course1,
		QuestionNumber:      number,
		QuestionType:        "TEXT",
		QuestionText:        "question " + id,
		GiverType:           giver,
		RecipientType:       recipient,
		ShowResponsesTo:     showResponses,
		ShowGiverNameTo:     showGiver,
		ShowRecipientNameTo: showRecipient,
	}
}

// addResponse 写入回复并登记作答者（模拟作答流程）
func (e *testEnv) addResponse(t *testing.T, questionID, giver, giverSection, recipient, recipientSection string) *model.FeedbackResponse {
	t.Helper()
	ctx := context.Background()
	q, err := e.questions.GetByID(ctx, questionID)
	if err != nil {
		t.Fatalf("题目 %s 不存在", questionID)
	}
	r := &model.FeedbackResponse{
		FeedbackSessionName:  q.FeedbackSessionName,
		CourseID:             q.CourseID,
		FeedbackQuestionID:   questionID,
		FeedbackQuestionType: "TEXT",
		Giver:                giver,
		GiverSection:         giverSection,
		Recipient:            recipient,
		RecipientSection:     recipientSection,
		Answer:               "answer from " + giver,
	}
	if err := e.responses.Create(ctx, r); err != nil {
		t.Fatalf("写入回复失败: %v", err)
	}
	_, isInstructor := e.instructors.instructors[rosterKey(q.CourseID, giver)]
	_ = e.respondents.Add(ctx, &model.FeedbackSessionRespondent{
		CourseID: q.CourseID, FeedbackSessionName: q.FeedbackSessionName, Email: giver, IsInstructor: isInstructor,
	})
	return r
}

func (e *testEnv) addComment(t *testing.T, r *model.FeedbackResponse) {
	t.Helper()
	if err := e.comments.Create(context.Background(), &model.FeedbackResponseComment{
		FeedbackResponseID:  r.FeedbackResponseID,
		FeedbackQuestionID:  r.FeedbackQuestionID,
		FeedbackSessionName: r.FeedbackSessionName,
		CourseID:            r.CourseID,
		CommentGiver:        instructor1,
		CommentText:         "comment on " + r.FeedbackResponseID,
		GiverSection:        r.GiverSection,
		ReceiverSection:     r.RecipientSection,
	}); err != nil {
		t.Fatalf("写入评论失败: %v", err)
	}
}

func (e *testEnv) roster(t *testing.T) *CourseRoster {
	t.Helper()
	r, err := LoadCourseRoster(context.Background(), e.repo, course1)
	if err != nil {
		t.Fatalf("加载名册失败: %v", err)
	}
	return r
}

func (e *testEnv) question(t *testing.T, id string) *model.FeedbackQuestion {
	t.Helper()
	q, err := e.questions.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("题目 %s 不存在", id)
	}
	return q
}

func strPtr(s string) *string { return &s }
