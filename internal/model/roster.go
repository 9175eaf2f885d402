package model

// Student 课程学生名册（表 students，课程内以邮箱唯一）
type Student struct {
	CourseID string `gorm:"type:varchar(64);primaryKey"       json:"course_id"`
	Email    string `gorm:"type:varchar(255);primaryKey"      json:"email"`
	Name     string `gorm:"type:varchar(100);not null"        json:"name"`
	Team     string `gorm:"type:varchar(100);not null;index"  json:"team"`
	Section  string `gorm:"type:varchar(100);not null"        json:"section"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Instructor 课程教师名册（表 instructors）
type Instructor struct {
	CourseID string `gorm:"type:varchar(64);primaryKey"  json:"course_id"`
	Email    string `gorm:"type:varchar(255);primaryKey" json:"email"`
	Name     string `gorm:"type:varchar(100);not null"   json:"name"`
	BaseModel
}

// TableName 指定表名
func (Instructor) TableName() string { return "instructors" }
