package service

import (
	"context"
	"testing"
)

func TestFeedbackSession_GracePeriodScenario(t *testing.T) {
	env := newTestEnv()
	env.seedTypicalCourse(t)
	sessions := env.sessionService()
	responses := env.responseService()
	ctx := context.Background()

	r1 := env.addResponse(t, "gqn1", student1, section1, student1, section1)
	env.addResponse(t, "gqn1", student2, section1, student2, section1)
	env.addResponse(t, "gqn1", instructor1, "None", instructor1, "None")

	lists, err := sessions.GetRespondingLists(ctx, graceSession, course1)
	if err != nil {
		t.Fatalf("查询作答名单失败: %v", err)
	}
	if len(lists.Students) != 2 || len(lists.Instructors) != 1 {
		t.Fatalf("期望 2 名学生 1 名教师，实际 %+v", lists)
	}
	if rate, _ := sessions.GetResponseRate(ctx, graceSession, course1); rate != 3 {
		t.Fatalf("期望作答率 3，实际=%d", rate)
	}

	if err := responses.DeleteResponseAndCascade(ctx, r1); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if rate, _ := sessions.GetResponseRate(ctx, graceSession, course1); rate != 2 {
		t.Errorf("删除 student1 唯一回复后作答率应为 2，实际=%d", rate)
	}
	if rate, _ := sessions.GetResponseRate(ctx, session1, course1); rate != 0 {
		t.Errorf("其他会话不受影响，实际=%d", rate)
	}
}

func TestFeedbackSession_AddRespondentIdempotent(t *testing.T) {
	env := newTestEnv()
	sessions := env.sessionService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := sessions.AddRespondent(ctx, student1, session1, course1, false); err != nil {
			t.Fatalf("登记失败: %v", err)
		}
	}
	if rate, _ := sessions.GetResponseRate(ctx, session1, course1); rate != 1 {
		t.Errorf("重复登记不应重复计数，实际=%d", rate)
	}
}

func TestFeedbackSession_RemoveRespondentIfNoResponsesLeft(t *testing.T) {
	env := newTestEnv()
	env.seedTypicalCourse(t)
	sessions := env.sessionService()
	ctx := context.Background()

	env.addResponse(t, "qn2", student1, section1, student2, section1)
	removed, err := sessions.RemoveRespondentIfNoResponsesLeft(ctx, student1, session1, course1)
	if err != nil || removed {
		t.Errorf("仍有回复时不应移除，removed=%v err=%v", removed, err)
	}

	if err := sessions.AddRespondent(ctx, student2, session1, course1, false); err != nil {
		t.Fatalf("登记失败: %v", err)
	}
	removed, err = sessions.RemoveRespondentIfNoResponsesLeft(ctx, student2, session1, course1)
	if err != nil || !removed {
		t.Errorf("无回复时应移除，removed=%v err=%v", removed, err)
	}
}

func TestFeedbackSession_ReplaceRespondent(t *testing.T) {
	env := newTestEnv()
	sessions := env.sessionService()
	ctx := context.Background()

	_ = sessions.AddRespondent(ctx, student1, session1, course1, false)
	_ = sessions.AddRespondent(ctx, student1, graceSession, course1, false)
	_ = sessions.AddRespondent(ctx, student2, graceSession, course1, false)
	_ = sessions.AddRespondent(ctx, student1, session1, course2, false)

	if err := sessions.ReplaceRespondent(ctx, course1, student1, student2); err != nil {
		t.Fatalf("改名失败: %v", err)
	}

	first, _ := sessions.GetRespondingLists(ctx, session1, course1)
	if len(first.Students) != 1 || first.Students[0] != student2 {
		t.Errorf("期望 %s 会话名单为 [student2]，实际=%v", session1, first.Students)
	}
	grace, _ := sessions.GetRespondingLists(ctx, graceSession, course1)
	if len(grace.Students) != 1 || grace.Students[0] != student2 {
		t.Errorf("新邮箱已在名单中时应合并，实际=%v", grace.Students)
	}
	other, _ := sessions.GetRespondingLists(ctx, session1, course2)
	if len(other.Students) != 1 || other.Students[0] != student1 {
		t.Errorf("其他课程不受影响，实际=%v", other.Students)
	}
}
