package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"peer-feedback/backend/internal/model"
	pkgerrors "peer-feedback/backend/pkg/errors"
)

// StudentRepository 学生名册数据访问接口
// 名册的增删改由选课系统负责，本服务只读；写方法供导入与测试使用
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByEmail(ctx context.Context, courseID, email string) (*model.Student, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Student, error)
	ListByTeam(ctx context.Context, courseID, team string) ([]model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, courseID, email string) error
}

// studentRepo StudentRepository 的 GORM 实现
type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	err := r.db.WithContext(ctx).Create(student).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrAlreadyExists
	}
	return err
}

func (r *studentRepo) GetByEmail(ctx context.Context, courseID, email string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND email = ?", courseID, email).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("team ASC, email ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListByTeam(ctx context.Context, courseID, team string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND team = ?", courseID, team).
		Order("email ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("course_id = ? AND email = ?", student.CourseID, student.Email).
		Updates(map[string]interface{}{
			"name":    student.Name,
			"team":    student.Team,
			"section": student.Section,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, courseID, email string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ? AND email = ?", courseID, email).
		Delete(&model.Student{}).Error
}

// InstructorRepository 教师名册数据访问接口
type InstructorRepository interface {
	Create(ctx context.Context, instructor *model.Instructor) error
	GetByEmail(ctx context.Context, courseID, email string) (*model.Instructor, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Instructor, error)
}

type instructorRepo struct {
	db *gorm.DB
}

// NewInstructorRepo 创建 InstructorRepository 实例
func NewInstructorRepo(db *gorm.DB) InstructorRepository {
	return &instructorRepo{db: db}
}

func (r *instructorRepo) Create(ctx context.Context, instructor *model.Instructor) error {
	err := r.db.WithContext(ctx).Create(instructor).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrAlreadyExists
	}
	return err
}

func (r *instructorRepo) GetByEmail(ctx context.Context, courseID, email string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND email = ?", courseID, email).
		First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *instructorRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Instructor, error) {
	var instructors []model.Instructor
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("email ASC").
		Find(&instructors).Error
	return instructors, err
}
