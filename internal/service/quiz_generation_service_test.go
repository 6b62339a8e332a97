package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/model"
	"lectureq_backend/internal/util"
)

const lectureText = "Merge sort splits the input in half, sorts each half recursively and merges the sorted halves in linear time."

// fakeModel returns a canned response or error without any network.
type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) Complete(_ context.Context, prompt string, _ GenerationOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func questionsJSON(t *testing.T, questions []model.Question) string {
	t.Helper()
	raw, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	return string(raw)
}

func newGenerationService(repos *testRepos, m TextCompleter) *QuizGenerationService {
	return NewQuizGenerationService(repos.lecture, repos.quiz, m, config.AIConfig{Temperature: 0.3})
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[]", "[]"},
		{"```json\n[]\n```", "[]"},
		{"```\n[]\n```", "[]"},
		{"  [1]  ", "[1]"},
	}
	for _, c := range cases {
		if got := StripCodeFence(c.in); got != c.want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseQuizResponse_Valid(t *testing.T) {
	raw := questionsJSON(t, testQuestions(10))

	questions, err := ParseQuizResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(questions))
	}
	if questions[0].CorrectAnswer != "A" {
		t.Fatalf("unexpected correct answer %q", questions[0].CorrectAnswer)
	}
}

func TestParseQuizResponse_FencedOutput(t *testing.T) {
	raw := "```json\n" + questionsJSON(t, testQuestions(2)) + "\n```"

	questions, err := ParseQuizResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}

func TestParseQuizResponse_SynthesizesMissingWrongExplanations(t *testing.T) {
	questions := testQuestions(1)
	questions[0].Explanations = map[string]string{"B": "B is wrong."}
	raw := questionsJSON(t, questions)

	parsed, err := ParseQuizResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := parsed[0]
	if q.Explanations["B"] != "B is wrong." {
		t.Fatalf("model-provided explanation was replaced: %q", q.Explanations["B"])
	}
	for _, label := range []string{"C", "D"} {
		if !strings.Contains(q.Explanations[label], "The correct answer is A") {
			t.Fatalf("missing synthesized explanation for %s: %q", label, q.Explanations[label])
		}
	}
	if q.Explanations["A"] != "" {
		t.Fatalf("correct option explanation should be empty, got %q", q.Explanations["A"])
	}
}

func TestParseQuizResponse_ForcesCorrectOptionExplanationEmpty(t *testing.T) {
	questions := testQuestions(1)
	questions[0].Explanations["A"] = "should be dropped"
	raw := questionsJSON(t, questions)

	parsed, err := ParseQuizResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed[0].Explanations["A"] != "" {
		t.Fatalf("explanation for the correct option survived: %q", parsed[0].Explanations["A"])
	}
}

func TestParseQuizResponse_Rejects(t *testing.T) {
	missingOption := testQuestions(1)
	missingOption[0].Options = map[string]string{"A": "only one"}

	badLabel := testQuestions(1)
	badLabel[0].CorrectAnswer = "E"

	noExplanation := testQuestions(1)
	noExplanation[0].CorrectExplanation = ""

	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the model rambled instead"},
		{"empty array", "[]"},
		{"missing option", questionsJSON(t, missingOption)},
		{"invalid correct label", questionsJSON(t, badLabel)},
		{"no correct explanation", questionsJSON(t, noExplanation)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseQuizResponse(c.raw); err == nil {
				t.Fatalf("expected error for %s", c.name)
			}
		})
	}
}

func TestGenerate_HappyPath(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, lectureText)

	m := &fakeModel{response: questionsJSON(t, testQuestions(10))}
	svc := newGenerationService(repos, m)

	quiz, err := svc.Generate(context.Background(), lecture.ID, teacher.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiz.QuestionCount != 10 {
		t.Fatalf("expected 10 questions, got %d", quiz.QuestionCount)
	}
	if !quiz.Active {
		t.Fatalf("new quiz should be active")
	}

	updated, err := repos.lecture.FindByID(lecture.ID)
	if err != nil {
		t.Fatalf("reload lecture: %v", err)
	}
	if updated.ProcessingStatus != model.StatusCompleted {
		t.Fatalf("expected completed status, got %s", updated.ProcessingStatus)
	}
	if !updated.QuizGenerated {
		t.Fatalf("quizGenerated flag not set")
	}

	if len(m.prompts) != 1 || !strings.Contains(m.prompts[0], "Merge sort") {
		t.Fatalf("lecture text missing from prompt")
	}
}

func TestGenerate_NotOwner(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	other := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, lectureText)

	svc := newGenerationService(repos, &fakeModel{})

	if _, err := svc.Generate(context.Background(), lecture.ID, other.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestGenerate_ShortTextFailsWithoutQuiz(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, "too short")

	m := &fakeModel{response: "[]"}
	svc := newGenerationService(repos, m)

	if _, err := svc.Generate(context.Background(), lecture.ID, teacher.ID); !errors.Is(err, util.ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
	if len(m.prompts) != 0 {
		t.Fatalf("model should not be called for short text")
	}

	updated, _ := repos.lecture.FindByID(lecture.ID)
	if updated.ProcessingStatus != model.StatusFailed {
		t.Fatalf("expected failed status, got %s", updated.ProcessingStatus)
	}
	if _, err := repos.quiz.FindByLectureID(lecture.ID); err == nil {
		t.Fatalf("no quiz should exist after a failed generation")
	}
}

func TestGenerate_SecondAttemptConflicts(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, lectureText)

	svc := newGenerationService(repos, &fakeModel{response: questionsJSON(t, testQuestions(10))})

	if _, err := svc.Generate(context.Background(), lecture.ID, teacher.ID); err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	if _, err := svc.Generate(context.Background(), lecture.ID, teacher.ID); !errors.Is(err, util.ErrQuizAlreadyExists) {
		t.Fatalf("expected ErrQuizAlreadyExists, got %v", err)
	}

	var count int64
	db.Model(&model.Quiz{}).Where("lecture_id = ?", lecture.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one quiz, got %d", count)
	}
}

func TestGenerate_QuotaExceededMarksFailed(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, lectureText)

	svc := newGenerationService(repos, &fakeModel{err: util.ErrModelQuotaExceeded})

	if _, err := svc.Generate(context.Background(), lecture.ID, teacher.ID); !errors.Is(err, util.ErrModelQuotaExceeded) {
		t.Fatalf("expected ErrModelQuotaExceeded, got %v", err)
	}

	updated, _ := repos.lecture.FindByID(lecture.ID)
	if updated.ProcessingStatus != model.StatusFailed {
		t.Fatalf("expected failed status, got %s", updated.ProcessingStatus)
	}
	if updated.ErrorMessage == "" {
		t.Fatalf("failure reason missing")
	}
}

func TestGenerate_InvalidModelOutputMarksFailed(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)
	lecture := seedLecture(t, db, teacher.ID, nil, lectureText)

	svc := newGenerationService(repos, &fakeModel{response: "I cannot produce a quiz."})

	_, err := svc.Generate(context.Background(), lecture.ID, teacher.ID)
	if !errors.Is(err, util.ErrInvalidModelResponse) {
		t.Fatalf("expected ErrInvalidModelResponse, got %v", err)
	}

	updated, _ := repos.lecture.FindByID(lecture.ID)
	if updated.ProcessingStatus != model.StatusFailed {
		t.Fatalf("expected failed status, got %s", updated.ProcessingStatus)
	}
}

func TestBuildQuizPrompt_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", promptTextLimit+500)
	prompt := buildQuizPrompt(long)
	if strings.Count(prompt, "a") != promptTextLimit {
		t.Fatalf("prompt text not truncated to %d chars", promptTextLimit)
	}
}

func TestBuildQuizPrompt_TruncatesByCharactersNotBytes(t *testing.T) {
	// A multi-byte rune straddling the cut position must survive intact.
	prompt := buildQuizPrompt(strings.Repeat("a", promptTextLimit-1) + "世界")
	if !utf8.ValidString(prompt) {
		t.Fatalf("prompt contains invalid UTF-8 after truncation")
	}
	if !strings.Contains(prompt, "世") || strings.Contains(prompt, "界") {
		t.Fatalf("truncation not at the character boundary")
	}

	// A CJK lecture keeps the full character budget, not a third of it.
	cjk := strings.Repeat("学", promptTextLimit+100)
	prompt = buildQuizPrompt(cjk)
	if got := strings.Count(prompt, "学"); got != promptTextLimit {
		t.Fatalf("expected %d characters kept, got %d", promptTextLimit, got)
	}
}

func TestGenerate_MinimumLengthCountsCharacters(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)
	teacher := seedUser(t, db, model.Teacher)

	// 17 CJK characters are 51 bytes but still far below the minimum.
	short := seedLecture(t, db, teacher.ID, nil, strings.Repeat("学", 17))
	m := &fakeModel{response: questionsJSON(t, testQuestions(10))}
	svc := newGenerationService(repos, m)

	if _, err := svc.Generate(context.Background(), short.ID, teacher.ID); !errors.Is(err, util.ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort for 17 characters, got %v", err)
	}
	if len(m.prompts) != 0 {
		t.Fatalf("model should not be called for short text")
	}

	// 50 CJK characters are enough.
	ok := seedLecture(t, db, teacher.ID, nil, strings.Repeat("学", 50))
	if _, err := svc.Generate(context.Background(), ok.ID, teacher.ID); err != nil {
		t.Fatalf("50-character lecture should generate, got %v", err)
	}
}
