package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lectureq_backend/internal/model"
	"lectureq_backend/internal/repository"
	"lectureq_backend/internal/util"
	"lectureq_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SanitizedQuestion is a question as a student sees it before submitting:
// text and options only, no answer key and no explanations.
type SanitizedQuestion struct {
	Index   int               `json:"index"`
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
}

type SanitizedQuiz struct {
	ID            uint                `json:"id"`
	LectureID     uint                `json:"lectureId"`
	Title         string              `json:"title"`
	QuestionCount int                 `json:"questionCount"`
	Questions     []SanitizedQuestion `json:"questions"`
}

// AnswerSubmission is one answer in a submit request. Selected may be empty
// for a skipped question.
type AnswerSubmission struct {
	QuestionIndex int    `json:"questionIndex" binding:"gte=0"`
	Selected      string `json:"selectedOption"`
}

type SubmitRequest struct {
	Answers   []AnswerSubmission `json:"answers" binding:"required"`
	TimeTaken int                `json:"timeTaken" binding:"gte=0"`
}

// QuestionBreakdown is the per-question line in a scored result. Options and
// the correct label are only ever revealed here, after the attempt is final.
type QuestionBreakdown struct {
	QuestionIndex int               `json:"questionIndex"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	Selected      string            `json:"selectedOption"`
	Correct       string            `json:"correctOption"`
	IsCorrect     bool              `json:"isCorrect"`
}

type ScoredResult struct {
	ResultID       uint                `json:"resultId"`
	QuizID         uint                `json:"quizId"`
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	Percentage     float64             `json:"percentage"`
	TimeTaken      int                 `json:"timeTaken"`
	SubmittedAt    time.Time           `json:"submittedAt"`
	Breakdown      []QuestionBreakdown `json:"breakdown"`
}

type ExplanationResult struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedOption string `json:"selectedOption"`
	Explanation    string `json:"explanation"`
	IsCorrect      bool   `json:"isCorrect"`
}

type QuizTakingService struct {
	QuizRepo    *repository.QuizRepository
	ResultRepo  *repository.QuizResultRepository
	LectureRepo *repository.LectureRepository
	ClassRepo   *repository.ClassRepository
}

func NewQuizTakingService(quizRepo *repository.QuizRepository, resultRepo *repository.QuizResultRepository, lectureRepo *repository.LectureRepository, classRepo *repository.ClassRepository) *QuizTakingService {
	return &QuizTakingService{
		QuizRepo:    quizRepo,
		ResultRepo:  resultRepo,
		LectureRepo: lectureRepo,
		ClassRepo:   classRepo,
	}
}

func (s *QuizTakingService) loadQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// checkStudentAccess enforces the enrollment gate. A quiz without a class is
// open to any authenticated student.
func (s *QuizTakingService) checkStudentAccess(quiz *model.Quiz, studentID uint) error {
	if quiz.ClassID == nil {
		return nil
	}
	enrolled, err := s.ClassRepo.IsEnrolled(studentID, *quiz.ClassID)
	if err != nil {
		return err
	}
	if !enrolled {
		return util.ErrNotEnrolled
	}
	return nil
}

// GetQuizForStudent returns the quiz with answer keys and explanations
// stripped. Students who already submitted are pointed at the result instead
// of getting a second look at the questions.
func (s *QuizTakingService) GetQuizForStudent(quizID, studentID uint) (*SanitizedQuiz, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.Active {
		return nil, util.ErrQuizInactive
	}
	if err := s.checkStudentAccess(quiz, studentID); err != nil {
		return nil, err
	}

	taken, err := s.ResultRepo.ExistsForQuizAndStudent(quizID, studentID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrAlreadySubmitted
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, err
	}

	sanitized := make([]SanitizedQuestion, len(questions))
	for i, q := range questions {
		sanitized[i] = SanitizedQuestion{
			Index:   i,
			Text:    q.Text,
			Options: q.Options,
		}
	}

	return &SanitizedQuiz{
		ID:            quiz.ID,
		LectureID:     quiz.LectureID,
		Title:         quiz.Title,
		QuestionCount: quiz.QuestionCount,
		Questions:     sanitized,
	}, nil
}

// scoreAnswers grades a submission against the answer key. Answers with an
// out-of-range index are dropped; questions the student never answered count
// as wrong with an empty selection.
func scoreAnswers(questions []model.Question, answers []AnswerSubmission) (int, []model.AnswerRecord) {
	selected := make(map[int]string, len(answers))
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(questions) {
			continue
		}
		selected[a.QuestionIndex] = strings.ToUpper(strings.TrimSpace(a.Selected))
	}

	score := 0
	records := make([]model.AnswerRecord, len(questions))
	for i, q := range questions {
		pick := selected[i]
		correct := pick == q.CorrectAnswer
		if correct {
			score++
		}
		records[i] = model.AnswerRecord{
			QuestionIndex: i,
			Selected:      pick,
			Correct:       q.CorrectAnswer,
			IsCorrect:     correct,
		}
	}
	return score, records
}

// Submit grades the attempt and records it. The one-attempt rule is enforced
// twice: a cheap existence check up front, and the unique index on
// (quiz_id, student_id) for the concurrent case.
func (s *QuizTakingService) Submit(quizID, studentID uint, req SubmitRequest) (*ScoredResult, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.Active {
		return nil, util.ErrQuizInactive
	}
	if err := s.checkStudentAccess(quiz, studentID); err != nil {
		return nil, err
	}

	taken, err := s.ResultRepo.ExistsForQuizAndStudent(quizID, studentID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrAlreadySubmitted
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, err
	}

	score, records := scoreAnswers(questions, req.Answers)

	percentage := 0.0
	if len(questions) > 0 {
		percentage = float64(score) / float64(len(questions)) * 100
	}

	result := &model.QuizResult{
		QuizID:         quizID,
		StudentID:      studentID,
		LectureID:      quiz.LectureID,
		ClassID:        quiz.ClassID,
		Score:          score,
		TotalQuestions: len(questions),
		Percentage:     percentage,
		TimeTaken:      req.TimeTaken,
		SubmittedAt:    time.Now(),
	}
	if err := result.EncodeAnswers(records); err != nil {
		return nil, err
	}

	if err := s.ResultRepo.Create(result); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadySubmitted
		}
		return nil, err
	}

	logger.Log.Info("quiz submitted",
		zap.Uint("quizId", quizID),
		zap.Uint("studentId", studentID),
		zap.Int("score", score),
		zap.Float64("percentage", percentage),
	)

	return buildScoredResult(result, questions, records), nil
}

// GetResultForStudent is the post-submission review path.
func (s *QuizTakingService) GetResultForStudent(quizID, studentID uint) (*ScoredResult, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	result, err := s.ResultRepo.FindByQuizAndStudent(quizID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, err
	}
	records, err := result.DecodeAnswers()
	if err != nil {
		return nil, err
	}

	return buildScoredResult(result, questions, records), nil
}

func buildScoredResult(result *model.QuizResult, questions []model.Question, records []model.AnswerRecord) *ScoredResult {
	breakdown := make([]QuestionBreakdown, 0, len(records))
	for _, rec := range records {
		line := QuestionBreakdown{
			QuestionIndex: rec.QuestionIndex,
			Selected:      rec.Selected,
			Correct:       rec.Correct,
			IsCorrect:     rec.IsCorrect,
		}
		if rec.QuestionIndex >= 0 && rec.QuestionIndex < len(questions) {
			line.Question = questions[rec.QuestionIndex].Text
			line.Options = questions[rec.QuestionIndex].Options
		}
		breakdown = append(breakdown, line)
	}
	return &ScoredResult{
		ResultID:       result.ID,
		QuizID:         result.QuizID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     result.Percentage,
		TimeTaken:      result.TimeTaken,
		SubmittedAt:    result.SubmittedAt,
		Breakdown:      breakdown,
	}
}

// SetActive toggles whether students can take the quiz. Only the teacher who
// owns the underlying lecture may flip it.
func (s *QuizTakingService) SetActive(quizID, requesterID uint, active bool) error {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return err
	}
	lecture, err := s.LectureRepo.FindByID(quiz.LectureID)
	if err != nil {
		return err
	}
	if lecture.TeacherID != requesterID {
		return util.ErrPermissionDenied
	}
	return s.QuizRepo.SetActive(quizID, active)
}

// Explain returns remediation text for one question and one picked option.
// Students can only look up explanations after submitting; the teacher who
// owns the lecture can look them up at any time.
func (s *QuizTakingService) Explain(quizID uint, questionIndex int, selectedOption string, requesterID uint, role model.UserRole) (*ExplanationResult, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}

	if role == model.Student {
		if err := s.checkStudentAccess(quiz, requesterID); err != nil {
			return nil, err
		}
		taken, err := s.ResultRepo.ExistsForQuizAndStudent(quizID, requesterID)
		if err != nil {
			return nil, err
		}
		if !taken {
			return nil, util.ErrPermissionDenied
		}
	} else if role == model.Teacher {
		lecture, err := s.LectureRepo.FindByID(quiz.LectureID)
		if err != nil {
			return nil, err
		}
		if lecture.TeacherID != requesterID {
			return nil, util.ErrPermissionDenied
		}
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, err
	}
	if questionIndex < 0 || questionIndex >= len(questions) {
		return nil, util.ErrQuestionNotFound
	}

	label := strings.ToUpper(strings.TrimSpace(selectedOption))
	if !isValidLabel(label) {
		return nil, util.ErrInvalidOption
	}

	q := questions[questionIndex]
	if label == q.CorrectAnswer {
		return &ExplanationResult{
			QuestionIndex:  questionIndex,
			SelectedOption: label,
			Explanation:    q.CorrectExplanation,
			IsCorrect:      true,
		}, nil
	}

	wrongText := q.Explanations[label]
	if strings.TrimSpace(wrongText) == "" {
		wrongText = fmt.Sprintf("The correct answer is %s.", q.CorrectAnswer)
	}
	explanation := wrongText + "\n\nCorrect answer (" + q.CorrectAnswer + "): " + q.CorrectExplanation

	return &ExplanationResult{
		QuestionIndex:  questionIndex,
		SelectedOption: label,
		Explanation:    explanation,
		IsCorrect:      false,
	}, nil
}
