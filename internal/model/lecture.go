package model

// ProcessingStatus tracks a lecture through quiz generation.
// pending -> processing -> completed | failed. failed lectures may be retried
// by a teacher-initiated regeneration; completed ones are blocked by the
// one-quiz-per-lecture constraint.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Lecture is an uploaded source document plus its extracted text.
// swagger:model Lecture
type Lecture struct {
	BaseModel
	Title            string           `gorm:"size:255;not null" json:"title"`
	TeacherID        uint             `gorm:"index;type:bigint unsigned" json:"teacherId"`
	ClassID          *uint            `gorm:"index;type:bigint unsigned" json:"classId,omitempty"`
	OriginalFilename string           `gorm:"size:255" json:"originalFilename"`
	FileURL          string           `gorm:"size:512" json:"fileUrl"`
	ExtractedText    string           `gorm:"type:longtext" json:"-"`
	TextLength       int              `json:"textLength"`
	ProcessingStatus ProcessingStatus `gorm:"type:varchar(20);default:'pending'" json:"processingStatus"`
	QuizGenerated    bool             `gorm:"default:false" json:"quizGenerated"`
	ErrorMessage     string           `gorm:"type:text" json:"errorMessage,omitempty"`
}

func (Lecture) TableName() string {
	return "lectures"
}
