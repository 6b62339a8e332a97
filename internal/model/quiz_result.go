package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AnswerRecord is one graded answer inside QuizResult.Answers, kept in the
// order the student submitted.
type AnswerRecord struct {
	QuestionIndex int    `json:"questionIndex"`
	Selected      string `json:"selected"`
	Correct       string `json:"correct"`
	IsCorrect     bool   `json:"isCorrect"`
}

// QuizResult is a student's scored attempt, immutable once written. The
// composite unique index on (quiz_id, student_id) makes the one-attempt rule
// atomic: concurrent submissions race to the insert and the loser gets a
// duplicate-key error instead of a second row.
// swagger:model QuizResult
type QuizResult struct {
	BaseModel
	QuizID         uint           `gorm:"index:idx_result_quiz_student,unique;type:bigint unsigned" json:"quizId"`
	StudentID      uint           `gorm:"index:idx_result_quiz_student,unique;type:bigint unsigned" json:"studentId"`
	LectureID      uint           `gorm:"index;type:bigint unsigned" json:"lectureId"`
	ClassID        *uint          `gorm:"index;type:bigint unsigned" json:"classId,omitempty"`
	Score          int            `gorm:"not null" json:"score"`
	TotalQuestions int            `gorm:"not null" json:"totalQuestions"`
	Percentage     float64        `gorm:"not null" json:"percentage"`
	TimeTaken      int            `json:"timeTaken"` // seconds
	SubmittedAt    time.Time      `json:"submittedAt"`
	Answers        datatypes.JSON `gorm:"type:json" json:"-"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

func (r *QuizResult) DecodeAnswers() ([]AnswerRecord, error) {
	var answers []AnswerRecord
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *QuizResult) EncodeAnswers(answers []AnswerRecord) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	r.Answers = datatypes.JSON(raw)
	return nil
}
