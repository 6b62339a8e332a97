package service

import (
	"testing"
	"time"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/model"
)

func TestRetentionSweep(t *testing.T) {
	db := newTestDB(t)
	repos := newTestRepos(db)

	old := &model.QuizResult{QuizID: 1, StudentID: 1, SubmittedAt: time.Now().AddDate(0, 0, -20)}
	fresh := &model.QuizResult{QuizID: 1, StudentID: 2, SubmittedAt: time.Now().AddDate(0, 0, -3)}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed old result: %v", err)
	}
	if err := db.Create(fresh).Error; err != nil {
		t.Fatalf("seed fresh result: %v", err)
	}

	svc := NewRetentionService(repos.result, config.RetentionConfig{ResultTTLDays: 15, Schedule: "0 3 * * *"})
	svc.Sweep()

	var count int64
	db.Model(&model.QuizResult{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 surviving result, got %d", count)
	}

	var survivor model.QuizResult
	if err := db.First(&survivor).Error; err != nil {
		t.Fatalf("load survivor: %v", err)
	}
	if survivor.StudentID != 2 {
		t.Fatalf("wrong result survived: %+v", survivor)
	}

	// Hard delete: the old row must not linger as soft-deleted.
	var unscoped int64
	db.Unscoped().Model(&model.QuizResult{}).Count(&unscoped)
	if unscoped != 1 {
		t.Fatalf("expired result was only soft-deleted")
	}
}
