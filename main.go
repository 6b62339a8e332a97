// @title Lecture Quiz Platform API
// @version 1.0
// @description Backend for the lecture quiz platform: teachers upload lecture documents, quizzes are generated from them, students take the quizzes.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"lectureq_backend/internal/app"
	"lectureq_backend/internal/config"
	"lectureq_backend/pkg/configwatcher"
	"lectureq_backend/pkg/database"
	"lectureq_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// InitDB runs the schema migration, so connecting is all migrate-only
	// needs.
	if *migrateOnly {
		if _, err := database.InitDB(&cfg.Database); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		log.Println("Database migration completed, exiting")
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// Picks up rotated model API keys without a restart.
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		application.ApplyConfig(newCfg)
		logger.Log.Info("Configuration reloaded", zap.String("model", newCfg.AI.Model))
	})

	application.Run()
}
