package controller

import (
	"strconv"

	"lectureq_backend/internal/service"
	"lectureq_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	GenerationService *service.QuizGenerationService
	TakingService     *service.QuizTakingService
}

func NewQuizController(generationService *service.QuizGenerationService, takingService *service.QuizTakingService) *QuizController {
	return &QuizController{
		GenerationService: generationService,
		TakingService:     takingService,
	}
}

// Generate godoc
// @Summary Generate a quiz from a lecture
// @Description Calls the model to build ten multiple-choice questions from the lecture text
// @Tags quizzes
// @Produce  json
// @Param   lectureId path int true "Lecture ID"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response "Lecture text too short or model output invalid"
// @Failure 403 {object} util.Response "Not the lecture owner"
// @Failure 409 {object} util.Response "Quiz already exists"
// @Failure 503 {object} util.Response "Model quota exceeded"
// @Security BearerAuth
// @Router /api/lectures/{lectureId}/quiz [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lectureID, err := pathID(ctx, "lectureId")
	if err != nil {
		util.BadRequest(ctx, "invalid lecture id")
		return
	}

	quiz, err := c.GenerationService.Generate(ctx.Request.Context(), lectureID, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// Take godoc
// @Summary Fetch a quiz for taking
// @Description Returns questions and options only; answer keys and explanations are stripped
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.SanitizedQuiz}
// @Failure 403 {object} util.Response "Not enrolled in the class"
// @Failure 409 {object} util.Response "Already submitted"
// @Security BearerAuth
// @Router /api/quizzes/{id} [get]
func (c *QuizController) Take(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	quiz, err := c.TakingService.GetQuizForStudent(quizID, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// Submit godoc
// @Summary Submit quiz answers
// @Description Grades the attempt and stores an immutable result; one attempt per student
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Param   body body service.SubmitRequest true "Answers"
// @Success 201 {object} util.Response{data=service.ScoredResult}
// @Failure 403 {object} util.Response "Not enrolled in the class"
// @Failure 409 {object} util.Response "Already submitted"
// @Security BearerAuth
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.TakingService.Submit(quizID, claims.UserID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// Result godoc
// @Summary Review a submitted attempt
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.ScoredResult}
// @Failure 404 {object} util.Response "No submission yet"
// @Security BearerAuth
// @Router /api/quizzes/{id}/result [get]
func (c *QuizController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	result, err := c.TakingService.GetResultForStudent(quizID, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Explain godoc
// @Summary Explanation for one question and option
// @Description Students can request explanations after submitting; the owning teacher at any time
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Param   question query int true "Question index, zero-based"
// @Param   option query string true "Option label A-D"
// @Success 200 {object} util.Response{data=service.ExplanationResult}
// @Failure 403 {object} util.Response "Not submitted yet"
// @Failure 404 {object} util.Response "No such question"
// @Security BearerAuth
// @Router /api/quizzes/{id}/explanation [get]
func (c *QuizController) Explain(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	questionIndex, err := strconv.Atoi(ctx.Query("question"))
	if err != nil {
		util.BadRequest(ctx, "invalid question index")
		return
	}
	option := ctx.Query("option")

	explanation, err := c.TakingService.Explain(quizID, questionIndex, option, claims.UserID, claims.Role)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, explanation)
}

// SetActive godoc
// @Summary Activate or deactivate a quiz
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Param   body body controller.SetActiveRequest true "Desired state"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes/{id}/active [put]
func (c *QuizController) SetActive(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := pathID(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.TakingService.SetActive(quizID, claims.UserID, *req.Active); err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// SetActiveRequest toggles quiz availability. A pointer distinguishes an
// explicit false from a missing field.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
