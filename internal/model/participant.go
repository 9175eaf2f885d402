package model

// FeedbackParticipantType 反馈参与者类别（封闭枚举）
// 同一组取值同时用于 giverType / recipientType 与三个可见性集合
type FeedbackParticipantType string

const (
	ParticipantSelf                        FeedbackParticipantType = "SELF"
	ParticipantStudents                    FeedbackParticipantType = "STUDENTS"
	ParticipantInstructors                 FeedbackParticipantType = "INSTRUCTORS"
	ParticipantTeams                       FeedbackParticipantType = "TEAMS"
	ParticipantOwnTeam                     FeedbackParticipantType = "OWN_TEAM"
	ParticipantOwnTeamMembers              FeedbackParticipantType = "OWN_TEAM_MEMBERS"
	ParticipantOwnTeamMembersIncludingSelf FeedbackParticipantType = "OWN_TEAM_MEMBERS_INCLUDING_SELF"
	ParticipantReceiver                    FeedbackParticipantType = "RECEIVER"
	ParticipantReceiverTeamMembers         FeedbackParticipantType = "RECEIVER_TEAM_MEMBERS"
	ParticipantGiver                       FeedbackParticipantType = "GIVER"
	ParticipantNone                        FeedbackParticipantType = "NONE"
)

var allParticipantTypes = []FeedbackParticipantType{
	ParticipantSelf,
	ParticipantStudents,
	ParticipantInstructors,
	ParticipantTeams,
	ParticipantOwnTeam,
	ParticipantOwnTeamMembers,
	ParticipantOwnTeamMembersIncludingSelf,
	ParticipantReceiver,
	ParticipantReceiverTeamMembers,
	ParticipantGiver,
	ParticipantNone,
}

// AllParticipantTypes 返回全部类别（副本）
func AllParticipantTypes() []FeedbackParticipantType {
	out := make([]FeedbackParticipantType, len(allParticipantTypes))
	copy(out, allParticipantTypes)
	return out
}

// IsValid 是否为已知类别
func (t FeedbackParticipantType) IsValid() bool {
	for _, v := range allParticipantTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsTeam 作为 recipientType 时，接收方字段保存的是团队名而非邮箱
func (t FeedbackParticipantType) IsTeam() bool {
	return t == ParticipantTeams || t == ParticipantOwnTeam
}

// IsTeamMembers 接收方为提交者本组成员
func (t FeedbackParticipantType) IsTeamMembers() bool {
	return t == ParticipantOwnTeamMembers || t == ParticipantOwnTeamMembersIncludingSelf
}

// IsTeamRelative 类别语义依赖团队归属，成员换组后相关回复失效
func (t FeedbackParticipantType) IsTeamRelative() bool {
	return t.IsTeam() || t.IsTeamMembers() || t == ParticipantReceiverTeamMembers
}

// ── 参与者身份（个人 / 团队） ──

// ParticipantKind 参与者身份种类
type ParticipantKind int

const (
	KindIndividual ParticipantKind = iota
	KindTeam
)

// Participant 回复中 giver / recipient 字段所指代的身份
type Participant struct {
	Kind ParticipantKind
	ID   string // 个人为邮箱，团队为团队名
}

// Individual 构造个人身份
func Individual(email string) Participant {
	return Participant{Kind: KindIndividual, ID: email}
}

// Team 构造团队身份
func Team(name string) Participant {
	return Participant{Kind: KindTeam, ID: name}
}

// IsTeam 是否为团队身份
func (p Participant) IsTeam() bool { return p.Kind == KindTeam }

// UserRole 查看者角色
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)
