package repository

import (
	"lectureq_backend/internal/model"

	"gorm.io/gorm"
)

type LectureRepository struct {
	DB *gorm.DB
}

func NewLectureRepository(db *gorm.DB) *LectureRepository {
	return &LectureRepository{DB: db}
}

func (r *LectureRepository) Create(lecture *model.Lecture) error {
	return r.DB.Create(lecture).Error
}

func (r *LectureRepository) FindByID(id uint) (*model.Lecture, error) {
	var lecture model.Lecture
	err := r.DB.First(&lecture, id).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *LectureRepository) ListByTeacher(teacherID uint, page, limit int) ([]model.Lecture, int64, error) {
	var lectures []model.Lecture
	var total int64
	query := r.DB.Model(&model.Lecture{}).Where("teacher_id = ?", teacherID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&lectures).Error
	return lectures, total, err
}

func (r *LectureRepository) UpdateStatus(id uint, status model.ProcessingStatus, errMsg string) error {
	return r.DB.Model(&model.Lecture{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processing_status": status,
		"error_message":     errMsg,
	}).Error
}

// MarkCompleted flips the lecture into its terminal success state. The
// status write happens after the quiz insert succeeded, so a completed
// lecture always has a quiz behind it.
func (r *LectureRepository) MarkCompleted(id uint) error {
	return r.DB.Model(&model.Lecture{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processing_status": model.StatusCompleted,
		"quiz_generated":    true,
		"error_message":     "",
	}).Error
}

// DeleteCascade removes the lecture together with its quiz and all results
// in one transaction.
func (r *LectureRepository) DeleteCascade(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lecture_id = ?", id).Delete(&model.QuizResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lecture_id = ?", id).Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Lecture{}, id).Error
	})
}
