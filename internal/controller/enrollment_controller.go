package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	Enrollments *service.EnrollmentService
}

func NewEnrollmentController(enrollments *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{Enrollments: enrollments}
}

type enrollmentRequest struct {
	UserID   uint `json:"userId" binding:"required"`
	CourseID uint `json:"courseId" binding:"required"`
}

func (c *EnrollmentController) mapError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrModuleNotFound),
		errors.Is(err, util.ErrEnrollmentNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAlreadyEnrolled):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// Enroll godoc
// @Summary Enroll a user in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body enrollmentRequest true "User and course"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "already enrolled"
// @Router /api/admin/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req enrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.Enrollments.Enroll(ctx.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		c.mapError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Complete godoc
// @Summary Mark an enrollment completed
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body enrollmentRequest true "User and course"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Router /api/admin/enrollments/complete [post]
func (c *EnrollmentController) Complete(ctx *gin.Context) {
	var req enrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.Enrollments.Complete(ctx.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		c.mapError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// Drop godoc
// @Summary Drop an enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body enrollmentRequest true "User and course"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Router /api/admin/enrollments/drop [post]
func (c *EnrollmentController) Drop(ctx *gin.Context) {
	var req enrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.Enrollments.Drop(ctx.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		c.mapError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

type progressRequest struct {
	UserID                uint  `json:"userId" binding:"required"`
	TimeSpentDeltaSeconds int64 `json:"timeSpentDeltaSeconds"`
	Completed             bool  `json:"completed"`
}

// RecordProgress godoc
// @Summary Record progress on a module
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path int true "Module id"
// @Param body body progressRequest true "Progress delta"
// @Success 200 {object} util.Response{data=model.ModuleProgress}
// @Failure 404 {object} util.Response
// @Router /api/admin/modules/{id}/progress [post]
func (c *EnrollmentController) RecordProgress(ctx *gin.Context) {
	moduleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req progressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Enrollments.RecordProgress(ctx.Request.Context(), req.UserID, moduleID, service.ProgressUpdate{
		TimeSpentDeltaSeconds: req.TimeSpentDeltaSeconds,
		Completed:             req.Completed,
	})
	if err != nil {
		c.mapError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
