package service

import (
	"errors"
	"math"

	"lectureq_backend/internal/model"
	"lectureq_backend/internal/repository"
	"lectureq_backend/internal/util"

	"gorm.io/gorm"
)

// QuestionStat is the per-question line in a quiz report: how often each
// question was answered correctly across all submissions.
type QuestionStat struct {
	QuestionIndex int     `json:"questionIndex"`
	Question      string  `json:"question"`
	CorrectCount  int     `json:"correctCount"`
	AnswerCount   int     `json:"answerCount"`
	CorrectRate   float64 `json:"correctRate"`
}

// ScoreBucket is one bar of the score distribution histogram.
type ScoreBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type RankingEntry struct {
	Rank       int     `json:"rank"`
	StudentID  uint    `json:"studentId"`
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
	TimeTaken  int     `json:"timeTaken"`
}

type QuizReport struct {
	QuizID          uint           `json:"quizId"`
	Title           string         `json:"title"`
	Submissions     int            `json:"submissions"`
	AveragePercent  float64        `json:"averagePercent"`
	HighestPercent  float64        `json:"highestPercent"`
	LowestPercent   float64        `json:"lowestPercent"`
	Distribution    []ScoreBucket  `json:"distribution"`
	QuestionStats   []QuestionStat `json:"questionStats"`
	Ranking         []RankingEntry `json:"ranking"`
	EnrolledCount   int64          `json:"enrolledCount"`
	ParticipationPc float64        `json:"participationPercent"`
}

type ClassQuizSummary struct {
	QuizID         uint    `json:"quizId"`
	Title          string  `json:"title"`
	Submissions    int     `json:"submissions"`
	AveragePercent float64 `json:"averagePercent"`
}

type ClassOverview struct {
	ClassID        uint               `json:"classId"`
	ClassName      string             `json:"className"`
	StudentCount   int64              `json:"studentCount"`
	QuizCount      int                `json:"quizCount"`
	AveragePercent float64            `json:"averagePercent"`
	Quizzes        []ClassQuizSummary `json:"quizzes"`
}

// TrendPoint is one attempt on a student's performance timeline, in
// submission order.
type TrendPoint struct {
	QuizID      uint    `json:"quizId"`
	Percentage  float64 `json:"percentage"`
	SubmittedAt string  `json:"submittedAt"`
}

type StudentOverview struct {
	StudentID      uint         `json:"studentId"`
	QuizzesTaken   int          `json:"quizzesTaken"`
	AveragePercent float64      `json:"averagePercent"`
	BestPercent    float64      `json:"bestPercent"`
	Trend          []TrendPoint `json:"trend"`
}

type AnalyticsService struct {
	QuizRepo    *repository.QuizRepository
	ResultRepo  *repository.QuizResultRepository
	LectureRepo *repository.LectureRepository
	ClassRepo   *repository.ClassRepository
}

func NewAnalyticsService(quizRepo *repository.QuizRepository, resultRepo *repository.QuizResultRepository, lectureRepo *repository.LectureRepository, classRepo *repository.ClassRepository) *AnalyticsService {
	return &AnalyticsService{
		QuizRepo:    quizRepo,
		ResultRepo:  resultRepo,
		LectureRepo: lectureRepo,
		ClassRepo:   classRepo,
	}
}

func (s *AnalyticsService) ownsQuiz(quiz *model.Quiz, teacherID uint) error {
	lecture, err := s.LectureRepo.FindByID(quiz.LectureID)
	if err != nil {
		return err
	}
	if lecture.TeacherID != teacherID {
		return util.ErrPermissionDenied
	}
	return nil
}

// BuildQuizReport aggregates every submission for one quiz. Reports are
// computed from the result rows on each request; nothing is cached.
func (s *AnalyticsService) BuildQuizReport(quizID, teacherID uint) (*QuizReport, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if err := s.ownsQuiz(quiz, teacherID); err != nil {
		return nil, err
	}

	results, err := s.ResultRepo.ListByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, err
	}

	report := &QuizReport{
		QuizID:        quizID,
		Title:         quiz.Title,
		Submissions:   len(results),
		Distribution:  scoreDistribution(results),
		QuestionStats: questionStats(questions, results),
		Ranking:       ranking(results),
	}

	if len(results) > 0 {
		sum := 0.0
		high := results[0].Percentage
		low := results[0].Percentage
		for _, r := range results {
			sum += r.Percentage
			high = math.Max(high, r.Percentage)
			low = math.Min(low, r.Percentage)
		}
		report.AveragePercent = round1(sum / float64(len(results)))
		report.HighestPercent = round1(high)
		report.LowestPercent = round1(low)
	}

	if quiz.ClassID != nil {
		enrolled, err := s.ClassRepo.CountActiveStudents(*quiz.ClassID)
		if err != nil {
			return nil, err
		}
		report.EnrolledCount = enrolled
		if enrolled > 0 {
			report.ParticipationPc = round1(float64(len(results)) / float64(enrolled) * 100)
		}
	}

	return report, nil
}

// BuildClassOverview summarizes every quiz in a class for its teacher.
func (s *AnalyticsService) BuildClassOverview(classID, teacherID uint) (*ClassOverview, error) {
	class, err := s.ClassRepo.FindByID(classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPermissionDenied
		}
		return nil, err
	}
	if class.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}

	studentCount, err := s.ClassRepo.CountActiveStudents(classID)
	if err != nil {
		return nil, err
	}

	quizzes, err := s.QuizRepo.ListByClass(classID)
	if err != nil {
		return nil, err
	}

	overview := &ClassOverview{
		ClassID:      classID,
		ClassName:    class.Name,
		StudentCount: studentCount,
		QuizCount:    len(quizzes),
		Quizzes:      make([]ClassQuizSummary, 0, len(quizzes)),
	}

	totalSum := 0.0
	totalCount := 0
	for _, quiz := range quizzes {
		results, err := s.ResultRepo.ListByQuiz(quiz.ID)
		if err != nil {
			return nil, err
		}
		summary := ClassQuizSummary{
			QuizID:      quiz.ID,
			Title:       quiz.Title,
			Submissions: len(results),
		}
		if len(results) > 0 {
			sum := 0.0
			for _, r := range results {
				sum += r.Percentage
			}
			summary.AveragePercent = round1(sum / float64(len(results)))
			totalSum += sum
			totalCount += len(results)
		}
		overview.Quizzes = append(overview.Quizzes, summary)
	}
	if totalCount > 0 {
		overview.AveragePercent = round1(totalSum / float64(totalCount))
	}

	return overview, nil
}

// BuildStudentOverview is the student's own performance timeline.
func (s *AnalyticsService) BuildStudentOverview(studentID uint) (*StudentOverview, error) {
	results, err := s.ResultRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}

	overview := &StudentOverview{
		StudentID:    studentID,
		QuizzesTaken: len(results),
		Trend:        make([]TrendPoint, 0, len(results)),
	}

	sum := 0.0
	for _, r := range results {
		sum += r.Percentage
		overview.BestPercent = math.Max(overview.BestPercent, r.Percentage)
		overview.Trend = append(overview.Trend, TrendPoint{
			QuizID:      r.QuizID,
			Percentage:  r.Percentage,
			SubmittedAt: r.SubmittedAt.Format("2006-01-02"),
		})
	}
	if len(results) > 0 {
		overview.AveragePercent = round1(sum / float64(len(results)))
	}

	return overview, nil
}

// scoreDistribution buckets percentages into five fixed bands.
func scoreDistribution(results []model.QuizResult) []ScoreBucket {
	buckets := []ScoreBucket{
		{Label: "0-59"},
		{Label: "60-69"},
		{Label: "70-79"},
		{Label: "80-89"},
		{Label: "90-100"},
	}
	for _, r := range results {
		switch {
		case r.Percentage < 60:
			buckets[0].Count++
		case r.Percentage < 70:
			buckets[1].Count++
		case r.Percentage < 80:
			buckets[2].Count++
		case r.Percentage < 90:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

func questionStats(questions []model.Question, results []model.QuizResult) []QuestionStat {
	stats := make([]QuestionStat, len(questions))
	for i, q := range questions {
		stats[i] = QuestionStat{QuestionIndex: i, Question: q.Text}
	}
	for _, r := range results {
		answers, err := r.DecodeAnswers()
		if err != nil {
			continue
		}
		for _, a := range answers {
			if a.QuestionIndex < 0 || a.QuestionIndex >= len(stats) {
				continue
			}
			stats[a.QuestionIndex].AnswerCount++
			if a.IsCorrect {
				stats[a.QuestionIndex].CorrectCount++
			}
		}
	}
	for i := range stats {
		if stats[i].AnswerCount > 0 {
			stats[i].CorrectRate = round1(float64(stats[i].CorrectCount) / float64(stats[i].AnswerCount) * 100)
		}
	}
	return stats
}

// ranking relies on ListByQuiz ordering (percentage desc, time asc). Ties on
// both fields share a rank.
func ranking(results []model.QuizResult) []RankingEntry {
	entries := make([]RankingEntry, 0, len(results))
	for i, r := range results {
		rank := i + 1
		if i > 0 && r.Percentage == results[i-1].Percentage && r.TimeTaken == results[i-1].TimeTaken {
			rank = entries[i-1].Rank
		}
		entries = append(entries, RankingEntry{
			Rank:       rank,
			StudentID:  r.StudentID,
			Score:      r.Score,
			Percentage: r.Percentage,
			TimeTaken:  r.TimeTaken,
		})
	}
	return entries
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
