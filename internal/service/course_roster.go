package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/repository"
)

// CourseRoster 课程名册只读快照，单次请求内构建一次
// 查询不到的邮箱 / 团队一律按“不存在”处理，不返回错误
type CourseRoster struct {
	courseID    string
	students    map[string]*model.Student
	instructors map[string]*model.Instructor
	teams       map[string][]*model.Student
}

// NewCourseRoster 由名册列表构建快照
func NewCourseRoster(courseID string, students []model.Student, instructors []model.Instructor) *CourseRoster {
	r := &CourseRoster{
		courseID:    courseID,
		students:    make(map[string]*model.Student, len(students)),
		instructors: make(map[string]*model.Instructor, len(instructors)),
		teams:       make(map[string][]*model.Student),
	}
	for i := range students {
		s := &students[i]
		r.students[s.Email] = s
		r.teams[s.Team] = append(r.teams[s.Team], s)
	}
	for i := range instructors {
		r.instructors[instructors[i].Email] = &instructors[i]
	}
	return r
}

// LoadCourseRoster 并行读取学生与教师名册
func LoadCourseRoster(ctx context.Context, repo *repository.Repository, courseID string) (*CourseRoster, error) {
	var (
		students    []model.Student
		instructors []model.Instructor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = repo.Student.ListByCourse(gctx, courseID)
		if err != nil {
			return fmt.Errorf("读取学生名册失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		instructors, err = repo.Instructor.ListByCourse(gctx, courseID)
		if err != nil {
			return fmt.Errorf("读取教师名册失败: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCourseRoster(courseID, students, instructors), nil
}

// CourseID 快照所属课程
func (r *CourseRoster) CourseID() string { return r.courseID }

// StudentForEmail 查询学生，不存在返回 nil
func (r *CourseRoster) StudentForEmail(email string) *model.Student {
	return r.students[email]
}

// InstructorForEmail 查询教师，不存在返回 nil
func (r *CourseRoster) InstructorForEmail(email string) *model.Instructor {
	return r.instructors[email]
}

// IsStudentInCourse 是否为本课程学生
func (r *CourseRoster) IsStudentInCourse(email string) bool {
	_, ok := r.students[email]
	return ok
}

// IsInstructorInCourse 是否为本课程教师
func (r *CourseRoster) IsInstructorInCourse(email string) bool {
	_, ok := r.instructors[email]
	return ok
}

// TeamOf 学生所在团队
func (r *CourseRoster) TeamOf(email string) (string, bool) {
	s, ok := r.students[email]
	if !ok {
		return "", false
	}
	return s.Team, true
}

// TeamMembers 团队成员（团队不存在时为空）
func (r *CourseRoster) TeamMembers(team string) []*model.Student {
	return r.teams[team]
}

// IsStudentInTeam 学生是否属于指定团队
func (r *CourseRoster) IsStudentInTeam(email, team string) bool {
	t, ok := r.TeamOf(email)
	return ok && t == team
}

// IsStudentsInSameTeam 两名学生是否同队；任一方不在名册中返回 false
func (r *CourseRoster) IsStudentsInSameTeam(a, b string) bool {
	ta, ok := r.TeamOf(a)
	if !ok {
		return false
	}
	tb, ok := r.TeamOf(b)
	return ok && ta == tb
}

// IsInParticipantTeam 查看者是否属于参与者所代表的团队
// 个人参与者按其所在团队判断，团队参与者按团队名判断
func (r *CourseRoster) IsInParticipantTeam(viewer string, p model.Participant) bool {
	if p.IsTeam() {
		return r.IsStudentInTeam(viewer, p.ID)
	}
	return r.IsStudentsInSameTeam(viewer, p.ID)
}

// NameOf 参与者的显示名；团队显示团队名，名册中查不到返回 false
func (r *CourseRoster) NameOf(p model.Participant) (string, bool) {
	if p.IsTeam() {
		if _, ok := r.teams[p.ID]; ok {
			return p.ID, true
		}
		return "", false
	}
	if s := r.students[p.ID]; s != nil {
		return s.Name, true
	}
	if i := r.instructors[p.ID]; i != nil {
		return i.Name, true
	}
	return "", false
}
