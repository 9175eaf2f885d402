package service

import (
	"peer-feedback/backend/internal/model"
	pkgerrors "peer-feedback/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// 可见性判定：纯函数，无副作用，可并发调用
// ═══════════════════════════════════════════════════════════

// visibilityCheck 一次 (题目, 回复, 查看者) 判定的上下文
type visibilityCheck struct {
	question *model.FeedbackQuestion
	response *model.FeedbackResponse
	viewer   string
	role     model.UserRole
	roster   *CourseRoster
}

func (c *visibilityCheck) giver() model.Participant {
	return c.question.GiverOf(c.response)
}

func (c *visibilityCheck) recipient() model.Participant {
	return c.question.RecipientOf(c.response)
}

// participantResolver 判断查看者是否属于某一参与者类别
type participantResolver func(c *visibilityCheck) bool

// participantResolvers 每个类别一个判定函数，覆盖全部枚举值
// SELF / TEAMS / OWN_TEAM / NONE 只用于 giverType、recipientType，作为可见性类别时不授予任何人
var participantResolvers = map[model.FeedbackParticipantType]participantResolver{
	model.ParticipantInstructors: func(c *visibilityCheck) bool {
		return c.role == model.RoleInstructor && c.roster.IsInstructorInCourse(c.viewer)
	},
	model.ParticipantStudents: func(c *visibilityCheck) bool {
		return c.role == model.RoleStudent
	},
	model.ParticipantGiver: func(c *visibilityCheck) bool {
		return c.viewer == c.response.Giver
	},
	model.ParticipantReceiver: func(c *visibilityCheck) bool {
		r := c.recipient()
		if r.IsTeam() {
			return c.roster.IsStudentInTeam(c.viewer, r.ID)
		}
		return c.viewer == r.ID
	},
	model.ParticipantOwnTeamMembers: func(c *visibilityCheck) bool {
		return c.roster.IsInParticipantTeam(c.viewer, c.giver())
	},
	model.ParticipantOwnTeamMembersIncludingSelf: func(c *visibilityCheck) bool {
		return c.roster.IsInParticipantTeam(c.viewer, c.giver())
	},
	model.ParticipantReceiverTeamMembers: func(c *visibilityCheck) bool {
		return c.roster.IsInParticipantTeam(c.viewer, c.recipient())
	},
	model.ParticipantSelf:    denyParticipant,
	model.ParticipantTeams:   denyParticipant,
	model.ParticipantOwnTeam: denyParticipant,
	model.ParticipantNone:    denyParticipant,
}

func denyParticipant(*visibilityCheck) bool { return false }

// matchesAny 查看者是否满足集合中任一类别
func (c *visibilityCheck) matchesAny(set model.ParticipantTypes) bool {
	for _, t := range set {
		resolve, ok := participantResolvers[t]
		if ok && resolve(c) {
			return true
		}
	}
	return false
}

// IsResponseVisible 回复对查看者是否可见
// 提交者始终可见；团队题的提交者队友同样可见；其余按 showResponsesTo 判定
func IsResponseVisible(question *model.FeedbackQuestion, response *model.FeedbackResponse,
	viewer string, role model.UserRole, roster *CourseRoster) bool {
	if question == nil || response == nil {
		return false
	}
	c := &visibilityCheck{question: question, response: response, viewer: viewer, role: role, roster: roster}
	if viewer == response.Giver {
		return true
	}
	if question.GiverType == model.ParticipantTeams && roster.IsStudentsInSameTeam(viewer, response.Giver) {
		return true
	}
	return c.matchesAny(question.ShowResponsesTo)
}

// IsNameVisibleToUser 提交者 / 接收者姓名对查看者是否可见
// question 为 nil 时返回 false；提交者能看到双方姓名，接收者能看到自己的姓名
func IsNameVisibleToUser(question *model.FeedbackQuestion, response *model.FeedbackResponse,
	viewer string, role model.UserRole, isGiverName bool, roster *CourseRoster) bool {
	if question == nil || response == nil {
		return false
	}
	c := &visibilityCheck{question: question, response: response, viewer: viewer, role: role, roster: roster}
	if viewer == response.Giver {
		return true
	}
	if isGiverName {
		return c.matchesAny(question.ShowGiverNameTo)
	}
	if r := c.recipient(); !r.IsTeam() && r.ID == viewer {
		return true
	}
	return c.matchesAny(question.ShowRecipientNameTo)
}

// mustBeViewerRole 查看者角色前置条件，违反即 panic（调用方缺陷）
func mustBeViewerRole(role model.UserRole) {
	if role != model.RoleStudent && role != model.RoleInstructor {
		panic(pkgerrors.Violation("The role of the requesting use has to be Student or Instructor"))
	}
}

// inSection 回复的提交方或接收方分区命中过滤条件
func inSection(r *model.FeedbackResponse, section *string) bool {
	if section == nil {
		return true
	}
	return r.GiverSection == *section || r.RecipientSection == *section
}

// filterViewable 按可见性与分区过滤，保持原有顺序
func filterViewable(question *model.FeedbackQuestion, responses []model.FeedbackResponse,
	viewer string, role model.UserRole, section *string, roster *CourseRoster) []model.FeedbackResponse {
	mustBeViewerRole(role)
	out := make([]model.FeedbackResponse, 0, len(responses))
	for i := range responses {
		r := &responses[i]
		if !IsResponseVisible(question, r, viewer, role, roster) {
			continue
		}
		if !inSection(r, section) {
			continue
		}
		out = append(out, *r)
	}
	return out
}
