package repository

import (
	"lectureq_backend/internal/model"

	"gorm.io/gorm"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) FindByID(id uint) (*model.Class, error) {
	var class model.Class
	err := r.DB.First(&class, id).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// IsEnrolled reports whether the student holds an active enrollment in the
// class. Inactive enrollments (dropped students) do not count.
func (r *ClassRepository) IsEnrolled(studentID, classID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("student_id = ? AND class_id = ? AND active = ?", studentID, classID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *ClassRepository) CountActiveStudents(classID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("class_id = ? AND active = ?", classID, true).
		Count(&count).Error
	return count, err
}
