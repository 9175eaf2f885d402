package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ── 参与者类别集合（TEXT 存储） ──

// ParticipantTypes 参与者类别集合，以 {A,B,C} 文本形式存储，实现 GORM Scanner/Valuer 接口。
// 与 PostgreSQL 数组字面量格式一致，SQLite 下同样可用。
type ParticipantTypes []FeedbackParticipantType

// Scan 将 {INSTRUCTORS,RECEIVER} 文本解析为集合。
func (p *ParticipantTypes) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("ParticipantTypes.Scan: unsupported type %T", src)
	}
	s = strings.Trim(strings.TrimSpace(s), "{}")
	if s == "" {
		*p = ParticipantTypes{}
		return nil
	}
	parts := strings.Split(s, ",")
	set := make(ParticipantTypes, 0, len(parts))
	for _, part := range parts {
		t := FeedbackParticipantType(strings.Trim(strings.TrimSpace(part), `"`))
		if !t.IsValid() {
			return fmt.Errorf("ParticipantTypes.Scan: invalid element %q", part)
		}
		set = set.Add(t)
	}
	*p = set
	return nil
}

// Value 将集合序列化为 {A,B,C} 文本。
func (p ParticipantTypes) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	parts := make([]string, len(p))
	for i, t := range p {
		if !t.IsValid() {
			return nil, fmt.Errorf("ParticipantTypes.Value: invalid element %q", t)
		}
		parts[i] = string(t)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains 判断集合是否包含指定类别
func (p ParticipantTypes) Contains(t FeedbackParticipantType) bool {
	for _, v := range p {
		if v == t {
			return true
		}
	}
	return false
}

// Add 返回加入 t 后的集合（已存在时原样返回）
func (p ParticipantTypes) Add(t FeedbackParticipantType) ParticipantTypes {
	if p.Contains(t) {
		return p
	}
	return append(p, t)
}

// Remove 返回移除 t 后的新集合
func (p ParticipantTypes) Remove(t FeedbackParticipantType) ParticipantTypes {
	out := make(ParticipantTypes, 0, len(p))
	for _, v := range p {
		if v != t {
			out = append(out, v)
		}
	}
	return out
}

// Clone 深拷贝，避免多个题目共享底层数组
func (p ParticipantTypes) Clone() ParticipantTypes {
	if p == nil {
		return nil
	}
	out := make(ParticipantTypes, len(p))
	copy(out, p)
	return out
}

// BaseModel 通用时间戳字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}
