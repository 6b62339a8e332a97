package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"lectureq_backend/internal/model"
	"lectureq_backend/internal/util"

	"gorm.io/gorm"
)

type takingFixture struct {
	db      *gorm.DB
	svc     *QuizTakingService
	teacher *model.User
	student *model.User
	class   *model.Class
	lecture *model.Lecture
	quiz    *model.Quiz
}

// newTakingFixture seeds a class with one enrolled student and a ten-question
// quiz whose correct answer is always A.
func newTakingFixture(t *testing.T) *takingFixture {
	t.Helper()
	db := newTestDB(t)
	repos := newTestRepos(db)

	teacher := seedUser(t, db, model.Teacher)
	student := seedUser(t, db, model.Student)
	class := seedClass(t, db, teacher.ID)
	enroll(t, db, class.ID, student.ID, true)
	lecture := seedLecture(t, db, teacher.ID, &class.ID, lectureText)
	quiz := seedQuiz(t, db, lecture, testQuestions(10))

	return &takingFixture{
		db:      db,
		svc:     NewQuizTakingService(repos.quiz, repos.result, repos.lecture, repos.class),
		teacher: teacher,
		student: student,
		class:   class,
		lecture: lecture,
		quiz:    quiz,
	}
}

func allAnswers(selected string, n int) []AnswerSubmission {
	answers := make([]AnswerSubmission, n)
	for i := range answers {
		answers[i] = AnswerSubmission{QuestionIndex: i, Selected: selected}
	}
	return answers
}

func TestGetQuizForStudent_StripsAnswerKey(t *testing.T) {
	f := newTakingFixture(t)

	quiz, err := f.svc.GetQuizForStudent(f.quiz.ID, f.student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiz.QuestionCount != 10 || len(quiz.Questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(quiz.Questions))
	}

	// Serialize the payload the way the API would and scan for leaks.
	raw, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"correct_answer", "explanation", "follows directly"} {
		if strings.Contains(string(raw), leak) {
			t.Fatalf("sanitized quiz leaks %q: %s", leak, raw)
		}
	}
}

func TestGetQuizForStudent_NotEnrolled(t *testing.T) {
	f := newTakingFixture(t)
	outsider := seedUser(t, f.db, model.Student)

	if _, err := f.svc.GetQuizForStudent(f.quiz.ID, outsider.ID); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestGetQuizForStudent_InactiveEnrollmentDenied(t *testing.T) {
	f := newTakingFixture(t)
	dropped := seedUser(t, f.db, model.Student)
	enroll(t, f.db, f.class.ID, dropped.ID, false)

	if _, err := f.svc.GetQuizForStudent(f.quiz.ID, dropped.ID); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestGetQuizForStudent_InactiveQuiz(t *testing.T) {
	f := newTakingFixture(t)
	f.db.Model(&model.Quiz{}).Where("id = ?", f.quiz.ID).Update("active", false)

	if _, err := f.svc.GetQuizForStudent(f.quiz.ID, f.student.ID); !errors.Is(err, util.ErrQuizInactive) {
		t.Fatalf("expected ErrQuizInactive, got %v", err)
	}
}

func TestGetQuizForStudent_ClasslessQuizOpenToAllStudents(t *testing.T) {
	f := newTakingFixture(t)
	lecture := seedLecture(t, f.db, f.teacher.ID, nil, lectureText)
	open := seedQuiz(t, f.db, lecture, testQuestions(3))
	outsider := seedUser(t, f.db, model.Student)

	if _, err := f.svc.GetQuizForStudent(open.ID, outsider.ID); err != nil {
		t.Fatalf("classless quiz should be open, got %v", err)
	}
}

func TestSubmit_ScoresAndBreaksDown(t *testing.T) {
	f := newTakingFixture(t)

	// One right answer, the rest wrong.
	answers := allAnswers("B", 10)
	answers[0].Selected = "A"

	result, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: answers, TimeTaken: 120})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 1 || result.TotalQuestions != 10 {
		t.Fatalf("expected 1/10, got %d/%d", result.Score, result.TotalQuestions)
	}
	if result.Percentage != 10 {
		t.Fatalf("expected 10%%, got %v", result.Percentage)
	}
	if len(result.Breakdown) != 10 {
		t.Fatalf("expected a breakdown line per question, got %d", len(result.Breakdown))
	}
	if !result.Breakdown[0].IsCorrect || result.Breakdown[1].IsCorrect {
		t.Fatalf("breakdown correctness flags wrong: %+v", result.Breakdown[:2])
	}
	if result.Breakdown[1].Correct != "A" {
		t.Fatalf("breakdown should reveal the correct option after submission")
	}
}

func TestSubmit_SkippedAndOutOfRangeAnswers(t *testing.T) {
	f := newTakingFixture(t)

	answers := []AnswerSubmission{
		{QuestionIndex: 0, Selected: "a"}, // lowercase still counts
		{QuestionIndex: 42, Selected: "A"},
		{QuestionIndex: 3, Selected: ""},
	}

	result, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 1 {
		t.Fatalf("expected score 1, got %d", result.Score)
	}
	if result.TotalQuestions != 10 {
		t.Fatalf("unanswered questions must still count toward the total")
	}
	if result.Breakdown[3].Selected != "" || result.Breakdown[3].IsCorrect {
		t.Fatalf("skipped question should be wrong with empty selection")
	}
}

func TestSubmit_SecondAttemptRejected(t *testing.T) {
	f := newTakingFixture(t)

	if _, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("A", 10)}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("B", 10)}); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	var count int64
	f.db.Model(&model.QuizResult{}).Where("quiz_id = ? AND student_id = ?", f.quiz.ID, f.student.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single result row, got %d", count)
	}
}

func TestSubmit_NotEnrolledLeavesNoResult(t *testing.T) {
	f := newTakingFixture(t)
	outsider := seedUser(t, f.db, model.Student)

	if _, err := f.svc.Submit(f.quiz.ID, outsider.ID, SubmitRequest{Answers: allAnswers("A", 10)}); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}

	var count int64
	f.db.Model(&model.QuizResult{}).Where("student_id = ?", outsider.ID).Count(&count)
	if count != 0 {
		t.Fatalf("denied submission must not leave a result row")
	}
}

func TestGetResultForStudent(t *testing.T) {
	f := newTakingFixture(t)

	if _, err := f.svc.GetResultForStudent(f.quiz.ID, f.student.ID); !errors.Is(err, util.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound before submitting, got %v", err)
	}

	submitted, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("A", 10), TimeTaken: 60})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	review, err := f.svc.GetResultForStudent(f.quiz.ID, f.student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if review.Score != submitted.Score || review.Percentage != 100 {
		t.Fatalf("review disagrees with submission: %+v", review)
	}
	if len(review.Breakdown) != 10 || review.Breakdown[0].Question == "" {
		t.Fatalf("review breakdown missing question text")
	}
}

func TestExplain_StudentGatedOnSubmission(t *testing.T) {
	f := newTakingFixture(t)

	if _, err := f.svc.Explain(f.quiz.ID, 0, "B", f.student.ID, model.Student); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied before submitting, got %v", err)
	}

	if _, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("B", 10)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	got, err := f.svc.Explain(f.quiz.ID, 0, "B", f.student.ID, model.Student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsCorrect {
		t.Fatalf("B is a wrong option")
	}
	if !strings.Contains(got.Explanation, "B misreads the definition.") {
		t.Fatalf("wrong-option text missing: %q", got.Explanation)
	}
	if !strings.Contains(got.Explanation, "Correct answer (A): A follows directly from the lecture.") {
		t.Fatalf("correct-answer text missing: %q", got.Explanation)
	}
}

func TestExplain_CorrectOption(t *testing.T) {
	f := newTakingFixture(t)
	if _, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("A", 10)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	got, err := f.svc.Explain(f.quiz.ID, 2, "a", f.student.ID, model.Student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsCorrect {
		t.Fatalf("A should be the correct option")
	}
	if got.Explanation != "A follows directly from the lecture." {
		t.Fatalf("unexpected explanation: %q", got.Explanation)
	}
}

func TestExplain_TeacherOwnerBypassesSubmissionGate(t *testing.T) {
	f := newTakingFixture(t)

	if _, err := f.svc.Explain(f.quiz.ID, 0, "C", f.teacher.ID, model.Teacher); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	other := seedUser(t, f.db, model.Teacher)
	if _, err := f.svc.Explain(f.quiz.ID, 0, "C", other.ID, model.Teacher); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-owner teacher, got %v", err)
	}
}

func TestExplain_RejectsBadInput(t *testing.T) {
	f := newTakingFixture(t)
	if _, err := f.svc.Submit(f.quiz.ID, f.student.ID, SubmitRequest{Answers: allAnswers("A", 10)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := f.svc.Explain(f.quiz.ID, 99, "A", f.student.ID, model.Student); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := f.svc.Explain(f.quiz.ID, 0, "E", f.student.ID, model.Student); !errors.Is(err, util.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestSetActive_OwnerOnly(t *testing.T) {
	f := newTakingFixture(t)
	other := seedUser(t, f.db, model.Teacher)

	if err := f.svc.SetActive(f.quiz.ID, other.ID, false); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if err := f.svc.SetActive(f.quiz.ID, f.teacher.ID, false); err != nil {
		t.Fatalf("owner toggle failed: %v", err)
	}
	var quiz model.Quiz
	f.db.First(&quiz, f.quiz.ID)
	if quiz.Active {
		t.Fatalf("quiz should be inactive")
	}
}
