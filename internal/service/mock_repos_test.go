package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"peer-feedback/backend/internal/model"
	pkgerrors "peer-feedback/backend/pkg/errors"
)

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student // key: course|email
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func rosterKey(courseID, email string) string { return courseID + "|" + email }

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	k := rosterKey(student.CourseID, student.Email)
	if _, ok := m.students[k]; ok {
		return pkgerrors.ErrAlreadyExists
	}
	cp := *student
	m.students[k] = &cp
	return nil
}

func (m *mockStudentRepo) GetByEmail(_ context.Context, courseID, email string) (*model.Student, error) {
	if s, ok := m.students[rosterKey(courseID, email)]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.CourseID == courseID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockStudentRepo) ListByTeam(_ context.Context, courseID, team string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.CourseID == courseID && s.Team == team {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	k := rosterKey(student.CourseID, student.Email)
	if _, ok := m.students[k]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *student
	m.students[k] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, courseID, email string) error {
	delete(m.students, rosterKey(courseID, email))
	return nil
}

// ── Mock InstructorRepository ──

type mockInstructorRepo struct {
	instructors map[string]*model.Instructor
}

func newMockInstructorRepo() *mockInstructorRepo {
	return &mockInstructorRepo{instructors: make(map[string]*model.Instructor)}
}

func (m *mockInstructorRepo) Create(_ context.Context, instructor *model.Instructor) error {
	k := rosterKey(instructor.CourseID, instructor.Email)
	if _, ok := m.instructors[k]; ok {
		return pkgerrors.ErrAlreadyExists
	}
	cp := *instructor
	m.instructors[k] = &cp
	return nil
}

func (m *mockInstructorRepo) GetByEmail(_ context.Context, courseID, email string) (*model.Instructor, error) {
	if i, ok := m.instructors[rosterKey(courseID, email)]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstructorRepo) ListByCourse(_ context.Context, courseID string) ([]model.Instructor, error) {
	var result []model.Instructor
	for _, i := range m.instructors {
		if i.CourseID == courseID {
			result = append(result, *i)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Email < result[b].Email })
	return result, nil
}

// ── Mock FeedbackQuestionRepository ──

type mockQuestionRepo struct {
	questions map[string]*model.FeedbackQuestion
}

func newMockQuestionRepo() *mockQuestionRepo {
	return &mockQuestionRepo{questions: make(map[string]*model.FeedbackQuestion)}
}

func (m *mockQuestionRepo) Create(_ context.Context, q *model.FeedbackQuestion) error {
	if q.FeedbackQuestionID == "" {
		q.FeedbackQuestionID = fmt.Sprintf("qn%d-%s", q.QuestionNumber, q.FeedbackSessionName)
	}
	for _, existing := range m.questions {
		if existing.CourseID == q.CourseID && existing.FeedbackSessionName == q.FeedbackSessionName &&
			existing.QuestionNumber == q.QuestionNumber {
			return pkgerrors.ErrAlreadyExists
		}
	}
	cp := *q
	m.questions[q.FeedbackQuestionID] = &cp
	return nil
}

func (m *mockQuestionRepo) GetByID(_ context.Context, id string) (*model.FeedbackQuestion, error) {
	if q, ok := m.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuestionRepo) GetByNumber(_ context.Context, courseID, sessionName string, number int) (*model.FeedbackQuestion, error) {
	for _, q := range m.questions {
		if q.CourseID == courseID && q.FeedbackSessionName == sessionName && q.QuestionNumber == number {
			cp := *q
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuestionRepo) ListBySession(_ context.Context, courseID, sessionName string) ([]model.FeedbackQuestion, error) {
	var result []model.FeedbackQuestion
	for _, q := range m.questions {
		if q.CourseID == courseID && q.FeedbackSessionName == sessionName {
			result = append(result, *q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].QuestionNumber < result[j].QuestionNumber })
	return result, nil
}

func (m *mockQuestionRepo) ListByCourse(_ context.Context, courseID string) ([]model.FeedbackQuestion, error) {
	var result []model.FeedbackQuestion
	for _, q := range m.questions {
		if q.CourseID == courseID {
			result = append(result, *q)
		}
	}
	return result, nil
}

// ── Mock FeedbackResponseRepository ──
// 以切片保存以保持写入顺序；(题目, 提交者, 接收者) 唯一

type mockResponseRepo struct {
	responses []*model.FeedbackResponse
	nextID    int
	failOn    map[string]error // 按回复 ID 注入 Delete / Update 失败
}

func newMockResponseRepo() *mockResponseRepo {
	return &mockResponseRepo{failOn: make(map[string]error)}
}

func (m *mockResponseRepo) indexOf(id string) int {
	for i, r := range m.responses {
		if r.FeedbackResponseID == id {
			return i
		}
	}
	return -1
}

func (m *mockResponseRepo) findKey(key model.ResponseKey) *model.FeedbackResponse {
	for _, r := range m.responses {
		if r.Key() == key {
			return r
		}
	}
	return nil
}

func (m *mockResponseRepo) Create(_ context.Context, response *model.FeedbackResponse) error {
	if m.findKey(response.Key()) != nil {
		return pkgerrors.ErrAlreadyExists
	}
	if response.FeedbackResponseID == "" {
		m.nextID++
		response.FeedbackResponseID = fmt.Sprintf("resp-%d", m.nextID)
	}
	if response.Version == 0 {
		response.Version = 1
	}
	cp := *response
	m.responses = append(m.responses, &cp)
	return nil
}

func (m *mockResponseRepo) GetByID(_ context.Context, id string) (*model.FeedbackResponse, error) {
	if i := m.indexOf(id); i >= 0 {
		cp := *m.responses[i]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponseRepo) Find(_ context.Context, questionID, giver, recipient string) (*model.FeedbackResponse, error) {
	if r := m.findKey(model.ResponseKey{QuestionID: questionID, Giver: giver, Recipient: recipient}); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponseRepo) filter(keep func(r *model.FeedbackResponse) bool) []model.FeedbackResponse {
	var result []model.FeedbackResponse
	for _, r := range m.responses {
		if keep(r) {
			result = append(result, *r)
		}
	}
	return result
}

func (m *mockResponseRepo) ListByQuestion(_ context.Context, questionID string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool { return r.FeedbackQuestionID == questionID }), nil
}

func (m *mockResponseRepo) ListByReceiverForQuestion(_ context.Context, questionID, recipient string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool {
		return r.FeedbackQuestionID == questionID && r.Recipient == recipient
	}), nil
}

func (m *mockResponseRepo) ListByGiverForQuestion(_ context.Context, questionID, giver string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool {
		return r.FeedbackQuestionID == questionID && r.Giver == giver
	}), nil
}

func (m *mockResponseRepo) ListBySession(_ context.Context, courseID, sessionName string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool {
		return r.CourseID == courseID && r.FeedbackSessionName == sessionName
	}), nil
}

func (m *mockResponseRepo) ListByGiverForCourse(_ context.Context, courseID, giver string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool { return r.CourseID == courseID && r.Giver == giver }), nil
}

func (m *mockResponseRepo) ListByReceiverForCourse(_ context.Context, courseID, recipient string) ([]model.FeedbackResponse, error) {
	return m.filter(func(r *model.FeedbackResponse) bool { return r.CourseID == courseID && r.Recipient == recipient }), nil
}

func (m *mockResponseRepo) CountByGiverInSession(_ context.Context, courseID, sessionName, giver string) (int64, error) {
	var n int64
	for _, r := range m.responses {
		if r.CourseID == courseID && r.FeedbackSessionName == sessionName && r.Giver == giver {
			n++
		}
	}
	return n, nil
}

func (m *mockResponseRepo) Update(_ context.Context, response *model.FeedbackResponse) error {
	if err, ok := m.failOn[response.FeedbackResponseID]; ok {
		return err
	}
	if clash := m.findKey(response.Key()); clash != nil && clash.FeedbackResponseID != response.FeedbackResponseID {
		return pkgerrors.ErrAlreadyExists
	}
	i := m.indexOf(response.FeedbackResponseID)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	stored := m.responses[i]
	if stored.Version != response.Version {
		return pkgerrors.ErrOptimisticLock
	}
	response.Version++
	cp := *response
	m.responses[i] = &cp
	return nil
}

func (m *mockResponseRepo) Delete(_ context.Context, id string) error {
	if err, ok := m.failOn[id]; ok {
		return err
	}
	if i := m.indexOf(id); i >= 0 {
		m.responses = append(m.responses[:i], m.responses[i+1:]...)
	}
	return nil
}

func (m *mockResponseRepo) DeleteByCourse(_ context.Context, courseID string) (int64, error) {
	kept := m.responses[:0]
	var n int64
	for _, r := range m.responses {
		if r.CourseID == courseID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.responses = kept
	return n, nil
}

// ── Mock FeedbackCommentRepository ──

type mockCommentRepo struct {
	comments []*model.FeedbackResponseComment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.FeedbackResponseComment) error {
	if comment.FeedbackResponseCommentID == "" {
		comment.FeedbackResponseCommentID = "comment-" + comment.FeedbackResponseID + "-" + comment.CommentGiver
	}
	cp := *comment
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *mockCommentRepo) ListByResponse(_ context.Context, responseID string) ([]model.FeedbackResponseComment, error) {
	var result []model.FeedbackResponseComment
	for _, c := range m.comments {
		if c.FeedbackResponseID == responseID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCommentRepo) UpdateSectionsForResponse(_ context.Context, responseID, giverSection, receiverSection string) error {
	for _, c := range m.comments {
		if c.FeedbackResponseID == responseID {
			c.GiverSection = giverSection
			c.ReceiverSection = receiverSection
		}
	}
	return nil
}

func (m *mockCommentRepo) deleteWhere(match func(c *model.FeedbackResponseComment) bool) int64 {
	kept := m.comments[:0]
	var n int64
	for _, c := range m.comments {
		if match(c) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.comments = kept
	return n
}

func (m *mockCommentRepo) DeleteByResponse(_ context.Context, responseID string) (int64, error) {
	return m.deleteWhere(func(c *model.FeedbackResponseComment) bool { return c.FeedbackResponseID == responseID }), nil
}

func (m *mockCommentRepo) DeleteByCourse(_ context.Context, courseID string) (int64, error) {
	return m.deleteWhere(func(c *model.FeedbackResponseComment) bool { return c.CourseID == courseID }), nil
}

// ── Mock SessionRespondentRepository ──

type mockRespondentRepo struct {
	rows map[string]*model.FeedbackSessionRespondent // key: course|session|email
}

func newMockRespondentRepo() *mockRespondentRepo {
	return &mockRespondentRepo{rows: make(map[string]*model.FeedbackSessionRespondent)}
}

func respondentKey(courseID, sessionName, email string) string {
	return courseID + "|" + sessionName + "|" + email
}

func (m *mockRespondentRepo) List(_ context.Context, courseID, sessionName string) ([]model.FeedbackSessionRespondent, error) {
	var result []model.FeedbackSessionRespondent
	for _, r := range m.rows {
		if r.CourseID == courseID && r.FeedbackSessionName == sessionName {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockRespondentRepo) Add(_ context.Context, r *model.FeedbackSessionRespondent) error {
	k := respondentKey(r.CourseID, r.FeedbackSessionName, r.Email)
	if _, ok := m.rows[k]; ok {
		return nil
	}
	cp := *r
	m.rows[k] = &cp
	return nil
}

func (m *mockRespondentRepo) Remove(_ context.Context, courseID, sessionName, email string) (bool, error) {
	k := respondentKey(courseID, sessionName, email)
	if _, ok := m.rows[k]; !ok {
		return false, nil
	}
	delete(m.rows, k)
	return true, nil
}

func (m *mockRespondentRepo) Rename(_ context.Context, courseID, oldEmail, newEmail string) error {
	for k, r := range m.rows {
		if r.CourseID != courseID || r.Email != oldEmail {
			continue
		}
		delete(m.rows, k)
		nk := respondentKey(courseID, r.FeedbackSessionName, newEmail)
		if _, ok := m.rows[nk]; ok {
			continue
		}
		r.Email = newEmail
		m.rows[nk] = r
	}
	return nil
}

func (m *mockRespondentRepo) DeleteByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for k, r := range m.rows {
		if r.CourseID == courseID {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// ── Mock CascadeLocker ──

type mockLocker struct {
	held     map[string]string
	err      error
	acquired int
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (m *mockLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	m.acquired++
	token := fmt.Sprintf("token-%d", m.acquired)
	m.held[key] = token
	return token, true, nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, key, token string) error {
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}
