package app

import (
	"lectureq_backend/docs"
	"lectureq_backend/internal/config"
	"lectureq_backend/internal/middleware"
	"lectureq_backend/internal/model"
	"lectureq_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, a.services.tokens))
	{
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.GET("/profile", c.auth.Profile)

		// Student routes. Teachers reviewing their own material pass the
		// same gates; admin passes everywhere.
		student := authGroup.Group("")
		student.Use(middleware.RoleMiddleware(model.Student))
		{
			student.GET("/quizzes/:id", c.quiz.Take)
			student.POST("/quizzes/:id/submit", c.quiz.Submit)
			student.GET("/quizzes/:id/result", c.quiz.Result)
			student.GET("/analytics/me", c.analytics.StudentOverview)
		}

		// Explanations serve both roles; the service decides who may see
		// what.
		authGroup.GET("/quizzes/:id/explanation", c.quiz.Explain)

		teacher := authGroup.Group("")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/lectures", c.lecture.Upload)
			teacher.GET("/lectures", c.lecture.List)
			teacher.GET("/lectures/:lectureId", c.lecture.Get)
			teacher.DELETE("/lectures/:lectureId", c.lecture.Delete)
			teacher.POST("/lectures/:lectureId/quiz", c.quiz.Generate)

			teacher.PUT("/quizzes/:id/active", c.quiz.SetActive)

			teacher.GET("/analytics/quizzes/:id", c.analytics.QuizReport)
			teacher.GET("/analytics/classes/:id", c.analytics.ClassOverview)
		}
	}
}
