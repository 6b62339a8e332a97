package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/controller"
	"lectureq_backend/internal/repository"
	"lectureq_backend/internal/service"
	"lectureq_backend/pkg/database"
	"lectureq_backend/pkg/logger"
	"lectureq_backend/pkg/monitoring"
	"lectureq_backend/pkg/security"
	"lectureq_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user    *repository.UserRepository
	class   *repository.ClassRepository
	lecture *repository.LectureRepository
	quiz    *repository.QuizRepository
	result  *repository.QuizResultRepository
}

type services struct {
	ai         *service.AIService
	auth       *service.AuthService
	lecture    *service.LectureService
	generation *service.QuizGenerationService
	taking     *service.QuizTakingService
	analytics  *service.AnalyticsService
	retention  *service.RetentionService
	tokens     *service.TokenStore
}

type controllers struct {
	auth      *controller.AuthController
	lecture   *controller.LectureController
	quiz      *controller.QuizController
	analytics *controller.AnalyticsController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		class:   repository.NewClassRepository(db),
		lecture: repository.NewLectureRepository(db),
		quiz:    repository.NewQuizRepository(db),
		result:  repository.NewQuizResultRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.tokens = service.NewTokenStore(rdb)
	s.auth = service.NewAuthService(repos.user, s.tokens, cfg.JWT)

	storage, err := service.NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	extractor := service.NewHTTPExtractor(cfg.Extract)
	s.lecture = service.NewLectureService(repos.lecture, repos.class, extractor, storage, cfg.Upload)

	s.ai = service.NewAIService(cfg.AI)
	s.generation = service.NewQuizGenerationService(repos.lecture, repos.quiz, s.ai, cfg.AI)

	s.taking = service.NewQuizTakingService(repos.quiz, repos.result, repos.lecture, repos.class)
	s.analytics = service.NewAnalyticsService(repos.quiz, repos.result, repos.lecture, repos.class)
	s.retention = service.NewRetentionService(repos.result, cfg.Retention)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		lecture:   controller.NewLectureController(s.lecture),
		quiz:      controller.NewQuizController(s.generation, s.taking),
		analytics: controller.NewAnalyticsController(s.analytics),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window == 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go s.lecture.CleanTempDir()

	if err := s.retention.Start(); err != nil {
		logger.Log.Error("failed to start retention schedule", zap.Error(err))
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lecture-quiz-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

// ApplyConfig pushes reloaded settings into the services that can take them
// at runtime.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config.AI = cfg.AI
	a.services.ai.UpdateConfig(cfg.AI)
	a.services.generation.UpdateAIConfig(cfg.AI)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.services.retention != nil {
		a.services.retention.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
