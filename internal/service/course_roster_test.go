package service

import (
	"testing"

	"peer-feedback/backend/internal/model"
)

func TestCourseRoster_TeamQueries(t *testing.T) {
	env := newTestEnv()
	env.seedTypicalCourse(t)
	roster := env.roster(t)

	if !roster.IsStudentsInSameTeam(student1, student4) {
		t.Error("student1 与 student4 应同队")
	}
	if roster.IsStudentsInSameTeam(student1, student5) {
		t.Error("student1 与 student5 不应同队")
	}
	if roster.IsStudentsInSameTeam(student1, "ghost@gmail.tmt") {
		t.Error("名册外的邮箱不应判定为同队")
	}
	if got := len(roster.TeamMembers(team11)); got != 4 {
		t.Errorf("期望 Team 1.1 有 4 名成员，实际=%d", got)
	}
	if !roster.IsInstructorInCourse(instructor1) || roster.IsInstructorInCourse(student1) {
		t.Error("教师判定错误")
	}
}

func TestCourseRoster_NameOf(t *testing.T) {
	env := newTestEnv()
	env.seedTypicalCourse(t)
	roster := env.roster(t)

	cases := []struct {
		p      model.Participant
		want   string
		wantOK bool
	}{
		{model.Individual(student1), "student1 In Course1", true},
		{model.Individual(instructor1), "Instructor1 Course1", true},
		{model.Team(team12), team12, true},
		{model.Team("Team 9.9"), "", false},
		{model.Individual("nullRecipient@gmail.tmt"), "", false},
	}
	for _, c := range cases {
		got, ok := roster.NameOf(c.p)
		if ok != c.wantOK || got != c.want {
			t.Errorf("NameOf(%v) 期望 (%q,%v)，实际 (%q,%v)", c.p, c.want, c.wantOK, got, ok)
		}
	}
}
