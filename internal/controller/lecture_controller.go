package controller

import (
	"strconv"

	"lectureq_backend/internal/service"
	"lectureq_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LectureController struct {
	LectureService *service.LectureService
}

func NewLectureController(lectureService *service.LectureService) *LectureController {
	return &LectureController{LectureService: lectureService}
}

// Upload godoc
// @Summary Upload a lecture document
// @Description Accepts a PDF, Word or PowerPoint file, extracts its text and records the lecture
// @Tags lectures
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Lecture document"
// @Param   title formData string false "Lecture title, defaults to the filename"
// @Param   classId formData int false "Class the lecture belongs to"
// @Success 201 {object} util.Response{data=model.Lecture}
// @Failure 400 {object} util.Response "Unsupported format or oversized file"
// @Security BearerAuth
// @Router /api/lectures [post]
func (c *LectureController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}

	req := service.UploadLectureRequest{
		Title: ctx.PostForm("title"),
	}
	if raw := ctx.PostForm("classId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid classId")
			return
		}
		classID := uint(id)
		req.ClassID = &classID
	}

	lecture, err := c.LectureService.Upload(ctx.Request.Context(), claims.UserID, req, header)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Created(ctx, lecture)
}

// List godoc
// @Summary List the teacher's lectures
// @Tags lectures
// @Produce  json
// @Param   page query int false "Page, starting at 1"
// @Param   limit query int false "Page size, max 100"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/lectures [get]
func (c *LectureController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	lectures, total, err := c.LectureService.List(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"lectures": lectures,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// Get godoc
// @Summary Lecture details
// @Tags lectures
// @Produce  json
// @Param   lectureId path int true "Lecture ID"
// @Success 200 {object} util.Response{data=model.Lecture}
// @Failure 404 {object} util.Response "Lecture not found"
// @Security BearerAuth
// @Router /api/lectures/{lectureId} [get]
func (c *LectureController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := pathID(ctx, "lectureId")
	if err != nil {
		util.BadRequest(ctx, "invalid lecture id")
		return
	}

	lecture, err := c.LectureService.Get(id, claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, lecture)
}

// Delete godoc
// @Summary Delete a lecture
// @Description Removes the lecture together with its quiz and all results
// @Tags lectures
// @Produce  json
// @Param   lectureId path int true "Lecture ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "Lecture not found"
// @Security BearerAuth
// @Router /api/lectures/{lectureId} [delete]
func (c *LectureController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := pathID(ctx, "lectureId")
	if err != nil {
		util.BadRequest(ctx, "invalid lecture id")
		return
	}

	if err := c.LectureService.Delete(ctx.Request.Context(), id, claims.UserID); err != nil {
		util.FromError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

func pathID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
