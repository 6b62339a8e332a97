package service

import (
	"time"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/repository"
	"lectureq_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RetentionService deletes quiz results past their retention window on a
// cron schedule. Aggregated report numbers change once rows age out; that is
// the intended behavior, reports always reflect what is still stored.
type RetentionService struct {
	ResultRepo *repository.QuizResultRepository
	cfg        config.RetentionConfig
	cron       *cron.Cron
}

func NewRetentionService(resultRepo *repository.QuizResultRepository, cfg config.RetentionConfig) *RetentionService {
	return &RetentionService{
		ResultRepo: resultRepo,
		cfg:        cfg,
		cron:       cron.New(),
	}
}

// Start registers the sweep and runs it once immediately so a long-stopped
// instance catches up on startup.
func (s *RetentionService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.Sweep() }); err != nil {
		return err
	}
	s.cron.Start()
	go s.Sweep()
	return nil
}

func (s *RetentionService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep deletes results older than the configured TTL and reports how many
// rows went away.
func (s *RetentionService) Sweep() {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.ResultTTLDays)
	removed, err := s.ResultRepo.DeleteOlderThan(cutoff)
	if err != nil {
		logger.Log.Error("retention sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Log.Info("retention sweep removed expired results",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
}
