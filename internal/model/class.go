package model

// Class groups lectures and quizzes for a set of enrolled students. Roster
// management lives outside this service; we only consume enrollment state.
// swagger:model Class
type Class struct {
	BaseModel
	Name      string `gorm:"size:255;not null" json:"name"`
	Subject   string `gorm:"size:100" json:"subject"`
	TeacherID uint   `gorm:"index;type:bigint unsigned" json:"teacherId"`
}

func (Class) TableName() string {
	return "classes"
}

// Enrollment links a student to a class. Only active enrollments grant access
// to class-scoped quizzes.
type Enrollment struct {
	BaseModel
	ClassID   uint   `gorm:"index:idx_enrollment_class_student,unique;type:bigint unsigned" json:"classId"`
	StudentID uint   `gorm:"index:idx_enrollment_class_student,unique;type:bigint unsigned" json:"studentId"`
	Active    bool   `gorm:"default:true" json:"active"`
	Class     *Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
