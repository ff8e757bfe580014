package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct {
	Feedback *service.FeedbackService
}

func NewFeedbackController(feedback *service.FeedbackService) *FeedbackController {
	return &FeedbackController{Feedback: feedback}
}

type feedbackRequest struct {
	UserID uint `json:"userId" binding:"required"`
	service.FeedbackRequest
}

// Submit godoc
// @Summary Submit feedback on a course or module
// @Tags feedback
// @Accept json
// @Produce json
// @Param body body feedbackRequest true "Feedback"
// @Success 201 {object} util.Response{data=model.Feedback}
// @Failure 400 {object} util.Response "rating outside 1-5"
// @Failure 404 {object} util.Response
// @Router /api/admin/feedback [post]
func (c *FeedbackController) Submit(ctx *gin.Context) {
	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedback, err := c.Feedback.Submit(ctx.Request.Context(), req.UserID, req.FeedbackRequest)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidRating):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrUserNotFound),
			errors.Is(err, util.ErrCourseNotFound),
			errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, feedback)
}
