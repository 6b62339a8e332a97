package repository

import (
	"lectureq_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// Create inserts the quiz. The unique index on lecture_id turns a concurrent
// second generation into gorm.ErrDuplicatedKey.
func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByLectureID(lectureID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("lecture_id = ?", lectureID).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ListByClass(classID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("class_id = ?", classID).Order("created_at desc").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) SetActive(id uint, active bool) error {
	return r.DB.Model(&model.Quiz{}).Where("id = ?", id).Update("active", active).Error
}
