package repository

import (
	"time"

	"lectureq_backend/internal/model"

	"gorm.io/gorm"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

// Create inserts the result. The unique index on (quiz_id, student_id) makes
// concurrent duplicate submissions fail with gorm.ErrDuplicatedKey.
func (r *QuizResultRepository) Create(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

func (r *QuizResultRepository) FindByQuizAndStudent(quizID, studentID uint) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.Where("quiz_id = ? AND student_id = ?", quizID, studentID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *QuizResultRepository) ExistsForQuizAndStudent(quizID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizResult{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *QuizResultRepository) ListByQuiz(quizID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("quiz_id = ?", quizID).Order("percentage desc, time_taken asc").Find(&results).Error
	return results, err
}

func (r *QuizResultRepository) ListByStudent(studentID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("student_id = ?", studentID).Order("submitted_at asc").Find(&results).Error
	return results, err
}

func (r *QuizResultRepository) ListByClass(classID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("class_id = ?", classID).Find(&results).Error
	return results, err
}

// DeleteOlderThan is the retention sweep: results past their retention
// window are removed for good (unscoped, not soft-deleted).
func (r *QuizResultRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.DB.Unscoped().Where("submitted_at < ?", cutoff).Delete(&model.QuizResult{})
	return res.RowsAffected, res.Error
}
