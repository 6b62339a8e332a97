package service

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"lectureq_backend/internal/model"
	"lectureq_backend/internal/repository"
	"lectureq_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// newTestDB opens a fresh in-memory database per test. TranslateError stays
// on so unique-index violations surface as gorm.ErrDuplicatedKey, same as
// production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.Enrollment{},
		&model.Lecture{},
		&model.Quiz{},
		&model.QuizResult{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type testRepos struct {
	user    *repository.UserRepository
	class   *repository.ClassRepository
	lecture *repository.LectureRepository
	quiz    *repository.QuizRepository
	result  *repository.QuizResultRepository
}

func newTestRepos(db *gorm.DB) *testRepos {
	return &testRepos{
		user:    repository.NewUserRepository(db),
		class:   repository.NewClassRepository(db),
		lecture: repository.NewLectureRepository(db),
		quiz:    repository.NewQuizRepository(db),
		result:  repository.NewQuizResultRepository(db),
	}
}

func seedUser(t *testing.T, db *gorm.DB, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Name:     string(role) + " user",
		Email:    fmt.Sprintf("%s-%d@example.com", role, seq(db)),
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedClass(t *testing.T, db *gorm.DB, teacherID uint) *model.Class {
	t.Helper()
	class := &model.Class{Name: "Algorithms", Subject: "CS", TeacherID: teacherID}
	if err := db.Create(class).Error; err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return class
}

func enroll(t *testing.T, db *gorm.DB, classID, studentID uint, active bool) {
	t.Helper()
	e := &model.Enrollment{ClassID: classID, StudentID: studentID, Active: active}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
}

func seedLecture(t *testing.T, db *gorm.DB, teacherID uint, classID *uint, text string) *model.Lecture {
	t.Helper()
	lecture := &model.Lecture{
		Title:            "Sorting",
		TeacherID:        teacherID,
		ClassID:          classID,
		OriginalFilename: "sorting.pdf",
		ExtractedText:    text,
		TextLength:       len(text),
		ProcessingStatus: model.StatusPending,
	}
	if err := db.Create(lecture).Error; err != nil {
		t.Fatalf("seed lecture: %v", err)
	}
	return lecture
}

// testQuestions builds n well-formed questions where the correct answer is
// always A.
func testQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			Text: fmt.Sprintf("Question %d?", i+1),
			Options: map[string]string{
				"A": "right",
				"B": "wrong b",
				"C": "wrong c",
				"D": "wrong d",
			},
			CorrectAnswer: "A",
			Explanations: map[string]string{
				"A": "",
				"B": "B misreads the definition.",
				"C": "C swaps the terms.",
				"D": "D is a common off-by-one.",
			},
			CorrectExplanation: "A follows directly from the lecture.",
		}
	}
	return questions
}

func seedQuiz(t *testing.T, db *gorm.DB, lecture *model.Lecture, questions []model.Question) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		LectureID: lecture.ID,
		ClassID:   lecture.ClassID,
		Title:     lecture.Title,
		Active:    true,
	}
	if err := quiz.EncodeQuestions(questions); err != nil {
		t.Fatalf("encode questions: %v", err)
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

var seqCounter int

func seq(_ *gorm.DB) int {
	seqCounter++
	return seqCounter
}
