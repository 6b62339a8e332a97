package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/model"
	"lectureq_backend/internal/repository"
	"lectureq_backend/internal/util"
	"lectureq_backend/pkg/logger"
	"lectureq_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Lectures with fewer characters than this carry too little material
	// for a quiz.
	minLectureTextLength = 50
	// Prompt prefix length in characters; bounds the model input regardless
	// of upload size.
	promptTextLimit  = 4000
	questionsPerQuiz = 10
)

const quizPromptTemplate = `You are generating a quiz for students based on a lecture document.

Create exactly %d multiple-choice questions from the lecture text below.
Difficulty mix: 3 easy, 4 medium, 3 hard.

Respond with ONLY a JSON array. Each element must have exactly these fields:
- "question": the question text
- "options": an object with keys "A", "B", "C", "D" and the four answer options as values
- "correct_answer": the key of the correct option ("A", "B", "C" or "D")
- "explanations": an object mapping each WRONG option key to a short explanation of why a student might pick it and why it is wrong
- "correct_answer_explanation": a short explanation of why the correct option is right

Do not include any text outside the JSON array.

Lecture text:
%s`

type QuizGenerationService struct {
	LectureRepo *repository.LectureRepository
	QuizRepo    *repository.QuizRepository
	Model       TextCompleter

	mu    sync.RWMutex
	aiCfg config.AIConfig
}

func NewQuizGenerationService(lectureRepo *repository.LectureRepository, quizRepo *repository.QuizRepository, model TextCompleter, aiCfg config.AIConfig) *QuizGenerationService {
	return &QuizGenerationService{
		LectureRepo: lectureRepo,
		QuizRepo:    quizRepo,
		Model:       model,
		aiCfg:       aiCfg,
	}
}

// Generate runs the full pipeline for one lecture: precondition checks,
// model call, response validation and the atomic quiz insert. The lecture's
// processing status tracks the outcome; on any failure it is marked failed
// with a human-readable reason and no quiz row is written.
func (s *QuizGenerationService) Generate(ctx context.Context, lectureID, requesterID uint) (*model.Quiz, error) {
	lecture, err := s.LectureRepo.FindByID(lectureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLectureNotFound
		}
		return nil, err
	}

	if lecture.TeacherID != requesterID {
		return nil, util.ErrPermissionDenied
	}

	if _, err := s.QuizRepo.FindByLectureID(lectureID); err == nil {
		return nil, util.ErrQuizAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if utf8.RuneCountInString(lecture.ExtractedText) < minLectureTextLength {
		s.markFailed(lectureID, "lecture text too short for quiz generation")
		return nil, util.ErrTextTooShort
	}

	if err := s.LectureRepo.UpdateStatus(lectureID, model.StatusProcessing, ""); err != nil {
		return nil, err
	}

	start := time.Now()
	quiz, err := s.generate(ctx, lecture)
	monitoring.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.GenerationCounter.WithLabelValues("failure").Inc()
		return nil, err
	}
	monitoring.GenerationCounter.WithLabelValues("success").Inc()

	logger.Log.Info("quiz generated",
		zap.Uint("lectureId", lectureID),
		zap.Uint("quizId", quiz.ID),
		zap.Int("questions", quiz.QuestionCount),
	)
	return quiz, nil
}

// UpdateAIConfig applies reloaded generation parameters to future runs.
func (s *QuizGenerationService) UpdateAIConfig(cfg config.AIConfig) {
	s.mu.Lock()
	s.aiCfg = cfg
	s.mu.Unlock()
}

func (s *QuizGenerationService) generate(ctx context.Context, lecture *model.Lecture) (*model.Quiz, error) {
	prompt := buildQuizPrompt(lecture.ExtractedText)

	s.mu.RLock()
	aiCfg := s.aiCfg
	s.mu.RUnlock()

	raw, err := s.Model.Complete(ctx, prompt, GenerationOptions{
		Temperature:      aiCfg.Temperature,
		TopP:             aiCfg.TopP,
		TopK:             aiCfg.TopK,
		MaxOutputTokens:  aiCfg.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if errors.Is(err, util.ErrModelQuotaExceeded) {
			s.markFailed(lecture.ID, "model quota exceeded, try again later")
			return nil, util.ErrModelQuotaExceeded
		}
		s.markFailed(lecture.ID, err.Error())
		return nil, err
	}

	questions, err := ParseQuizResponse(raw)
	if err != nil {
		s.markFailed(lecture.ID, err.Error())
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidModelResponse, err)
	}

	quiz := &model.Quiz{
		LectureID: lecture.ID,
		ClassID:   lecture.ClassID,
		Title:     lecture.Title,
		Active:    true,
	}
	if err := quiz.EncodeQuestions(questions); err != nil {
		s.markFailed(lecture.ID, err.Error())
		return nil, err
	}

	if err := s.QuizRepo.Create(quiz); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent generation; a quiz exists, so
			// the lecture is still completed.
			s.markCompleted(lecture.ID)
			return nil, util.ErrQuizAlreadyExists
		}
		s.markFailed(lecture.ID, err.Error())
		return nil, err
	}

	s.markCompleted(lecture.ID)
	return quiz, nil
}

func (s *QuizGenerationService) markFailed(lectureID uint, reason string) {
	if err := s.LectureRepo.UpdateStatus(lectureID, model.StatusFailed, reason); err != nil {
		logger.Log.Error("failed to mark lecture failed", zap.Uint("lectureId", lectureID), zap.Error(err))
	}
}

func (s *QuizGenerationService) markCompleted(lectureID uint) {
	if err := s.LectureRepo.MarkCompleted(lectureID); err != nil {
		logger.Log.Error("failed to mark lecture completed", zap.Uint("lectureId", lectureID), zap.Error(err))
	}
}

// buildQuizPrompt truncates by characters, not bytes, so a multi-byte rune
// is never split at the cut.
func buildQuizPrompt(text string) string {
	if runes := []rune(text); len(runes) > promptTextLimit {
		text = string(runes[:promptTextLimit])
	}
	return fmt.Sprintf(quizPromptTemplate, questionsPerQuiz, text)
}

// StripCodeFence removes a Markdown code fence wrapper that models sometimes
// put around JSON output despite instructions.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ParseQuizResponse turns raw model output into validated questions.
// A non-empty array with fewer than the requested count is accepted; the
// prompt asks for exactly ten but the count is not enforced here.
func ParseQuizResponse(raw string) ([]model.Question, error) {
	cleaned := StripCodeFence(raw)

	var questions []model.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("response is not a JSON question array: %v", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("response contains no questions")
	}

	for i := range questions {
		if err := validateQuestion(&questions[i], i); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func validateQuestion(q *model.Question, index int) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d has no text", index)
	}
	for _, label := range model.OptionLabels {
		if strings.TrimSpace(q.Options[label]) == "" {
			return fmt.Errorf("question %d is missing option %s", index, label)
		}
	}
	if !isValidLabel(q.CorrectAnswer) {
		return fmt.Errorf("question %d has invalid correct answer %q", index, q.CorrectAnswer)
	}
	if strings.TrimSpace(q.CorrectExplanation) == "" {
		return fmt.Errorf("question %d has no correct-answer explanation", index)
	}

	// Every wrong option must carry remediation text so the explanation
	// lookup never comes back empty; synthesize what the model omitted.
	if q.Explanations == nil {
		q.Explanations = make(map[string]string, len(model.OptionLabels))
	}
	for _, label := range model.OptionLabels {
		if label == q.CorrectAnswer {
			continue
		}
		if strings.TrimSpace(q.Explanations[label]) == "" {
			q.Explanations[label] = fmt.Sprintf("This option is not correct. The correct answer is %s.", q.CorrectAnswer)
		}
	}
	q.Explanations[q.CorrectAnswer] = ""

	return nil
}

func isValidLabel(label string) bool {
	for _, l := range model.OptionLabels {
		if l == label {
			return true
		}
	}
	return false
}
