package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Option labels for multiple-choice questions.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question is one multiple-choice item, embedded in Quiz.Questions as JSON.
// Explanations maps every option label to remediation text for students who
// picked that option; the entry for CorrectAnswer is always the empty string.
type Question struct {
	Text               string            `json:"question"`
	Options            map[string]string `json:"options"`
	CorrectAnswer      string            `json:"correct_answer"`
	Explanations       map[string]string `json:"explanations"`
	CorrectExplanation string            `json:"correct_answer_explanation"`
}

// Quiz is a generated assessment tied to exactly one lecture. The unique
// index on LectureID enforces the at-most-one-quiz invariant at the
// database, not just in the pre-generation existence check.
// swagger:model Quiz
type Quiz struct {
	BaseModel
	LectureID     uint           `gorm:"uniqueIndex;type:bigint unsigned" json:"lectureId"`
	ClassID       *uint          `gorm:"index;type:bigint unsigned" json:"classId,omitempty"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Questions     datatypes.JSON `gorm:"type:json" json:"-"`
	QuestionCount int            `json:"questionCount"`
	Active        bool           `gorm:"default:true" json:"active"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) DecodeQuestions() ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *Quiz) EncodeQuestions(questions []Question) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	q.Questions = datatypes.JSON(raw)
	q.QuestionCount = len(questions)
	return nil
}
