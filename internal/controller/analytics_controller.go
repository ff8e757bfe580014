package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Metrics *service.MetricsService
	Risk    *service.RiskService
}

func NewAnalyticsController(metrics *service.MetricsService, risk *service.RiskService) *AnalyticsController {
	return &AnalyticsController{Metrics: metrics, Risk: risk}
}

// Courses godoc
// @Summary Per-course analytics
// @Tags analytics
// @Produce json
// @Success 200 {object} util.Response{data=[]model.CourseAnalytics}
// @Failure 500 {object} util.Response
// @Router /api/admin/analytics/courses [get]
func (c *AnalyticsController) Courses(ctx *gin.Context) {
	analytics, err := c.Metrics.CourseAnalytics(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

// Users godoc
// @Summary User risk analytics
// @Description With filter=at_risk only medium and high risk users are returned, highest score first
// @Tags analytics
// @Produce json
// @Param filter query string false "at_risk"
// @Success 200 {object} util.Response{data=[]model.RiskAssessment}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/admin/analytics/users [get]
func (c *AnalyticsController) Users(ctx *gin.Context) {
	filter := ctx.Query("filter")
	if filter != "" && filter != "at_risk" {
		util.BadRequest(ctx, "unknown filter, expected at_risk")
		return
	}

	assessments, err := c.Risk.AtRiskUsers(ctx.Request.Context(), time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if filter == "at_risk" {
		assessments = service.FilterAtRisk(assessments)
	}
	util.Success(ctx, assessments)
}
