package dto

// ── 名册变更 DTO ──

// EnrollStatus 选课记录变更状态
type EnrollStatus string

const (
	EnrollNew        EnrollStatus = "NEW"
	EnrollModified   EnrollStatus = "MODIFIED"
	EnrollUnmodified EnrollStatus = "UNMODIFIED"
	EnrollError      EnrollStatus = "ERROR"
)

// StudentEnrollDetails 学生在课程内的一次变更（由选课系统提供）
type StudentEnrollDetails struct {
	UpdateStatus EnrollStatus `json:"update_status" binding:"required,oneof=NEW MODIFIED UNMODIFIED ERROR" validate:"required,oneof=NEW MODIFIED UNMODIFIED ERROR"`
	Course       string       `json:"course"        binding:"required,max=64"                              validate:"required,max=64"`
	Email        string       `json:"email"         binding:"required,email"                               validate:"required,email"`
	OldTeam      string       `json:"old_team"      binding:"max=100"                                      validate:"max=100"`
	NewTeam      string       `json:"new_team"      binding:"max=100"                                      validate:"max=100"`
	OldSection   string       `json:"old_section"   binding:"max=100"                                      validate:"max=100"`
	NewSection   string       `json:"new_section"   binding:"max=100"                                      validate:"max=100"`
}

// TeamChanged 团队是否变化
func (d *StudentEnrollDetails) TeamChanged() bool {
	return d.OldTeam != d.NewTeam
}

// SectionChanged 分区是否变化
func (d *StudentEnrollDetails) SectionChanged() bool {
	return d.OldSection != d.NewSection
}

// ChangeEmailRequest 学生邮箱变更请求
type ChangeEmailRequest struct {
	OldEmail string `json:"old_email" binding:"required,email"`
	NewEmail string `json:"new_email" binding:"required,email,nefield=OldEmail"`
}

// CascadeResult 批量级联统计
// Failed 非零表示部分条目失败，可重复执行补齐
type CascadeResult struct {
	Deleted int `json:"deleted"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Add 合并另一组统计
func (r *CascadeResult) Add(other CascadeResult) {
	r.Deleted += other.Deleted
	r.Updated += other.Updated
	r.Failed += other.Failed
}
