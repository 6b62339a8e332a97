package controller

import (
	"lectureq_backend/internal/service"
	"lectureq_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// QuizReport godoc
// @Summary Aggregated report for one quiz
// @Description Score distribution, per-question correct rates and the ranking, computed from stored results
// @Tags analytics
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.QuizReport}
// @Failure 403 {object} util.Response "Not the quiz owner"
// @Security BearerAuth
// @Router /api/analytics/quizzes/{id} [get]
func (c *AnalyticsController) QuizReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	report, err := c.AnalyticsService.BuildQuizReport(quizID, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// ClassOverview godoc
// @Summary Per-quiz averages across a class
// @Tags analytics
// @Produce  json
// @Param   id path int true "Class ID"
// @Success 200 {object} util.Response{data=service.ClassOverview}
// @Failure 403 {object} util.Response "Not the class teacher"
// @Security BearerAuth
// @Router /api/analytics/classes/{id} [get]
func (c *AnalyticsController) ClassOverview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	classID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	overview, err := c.AnalyticsService.BuildClassOverview(classID, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}

// StudentOverview godoc
// @Summary The requesting student's performance timeline
// @Tags analytics
// @Produce  json
// @Success 200 {object} util.Response{data=service.StudentOverview}
// @Security BearerAuth
// @Router /api/analytics/me [get]
func (c *AnalyticsController) StudentOverview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	overview, err := c.AnalyticsService.BuildStudentOverview(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}
