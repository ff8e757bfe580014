package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Courses  *service.CourseService
	Feedback *service.FeedbackService
}

func NewCourseController(courses *service.CourseService, feedback *service.FeedbackService) *CourseController {
	return &CourseController{Courses: courses, Feedback: feedback}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || raw == 0 {
		util.BadRequest(ctx, name+" must be a positive integer")
		return 0, false
	}
	return uint(raw), true
}

// Create godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param body body service.CourseRequest true "Course"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.Courses.Create(ctx.Request.Context(), req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// Update godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course id"
// @Param body body service.CourseRequest true "Course"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.Courses.Update(ctx.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Get godoc
// @Summary Course details
// @Tags courses
// @Produce json
// @Param id path int true "Course id"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.Courses.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// List godoc
// @Summary Paginated course listing
// @Tags courses
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 100"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.Courses.List(ctx.Request.Context(), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// AddModule godoc
// @Summary Add a module to a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course id"
// @Param body body service.ModuleRequest true "Module"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id}/modules [post]
func (c *CourseController) AddModule(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.Courses.AddModule(ctx.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// ListModules godoc
// @Summary Modules of a course in order
// @Tags courses
// @Produce json
// @Param id path int true "Course id"
// @Success 200 {object} util.Response{data=[]model.CourseModule}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id}/modules [get]
func (c *CourseController) ListModules(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	modules, err := c.Courses.ListModules(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// ListFeedback godoc
// @Summary Feedback on a course and its modules
// @Tags courses
// @Produce json
// @Param id path int true "Course id"
// @Success 200 {object} util.Response{data=[]model.Feedback}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id}/feedback [get]
func (c *CourseController) ListFeedback(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	feedback, err := c.Feedback.ListForCourse(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}
