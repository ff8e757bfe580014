package controller

import (
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Reports *service.ReportService
}

func NewReportController(reports *service.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

// Create godoc
// @Summary Submit a report job
// @Description Validates synchronously and returns 202 with the report id; generation runs in the background
// @Tags reports
// @Accept json
// @Produce json
// @Param body body service.ReportRequest true "Report parameters"
// @Success 202 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "invalid body, date range, type, format, or filter"
// @Failure 500 {object} util.Response
// @Router /api/admin/reports [post]
func (c *ReportController) Create(ctx *gin.Context) {
	var req service.ReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id, err := c.Reports.Generate(ctx.Request.Context(), req)
	if err != nil {
		switch {
		// Every synchronous validation failure is the caller's fault.
		case errors.Is(err, util.ErrInvalidDateRange),
			errors.Is(err, util.ErrUnknownFilterID),
			errors.Is(err, util.ErrInvalidReportRequest):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Accepted(ctx, gin.H{"reportId": id})
}

// Get godoc
// @Summary Report status
// @Tags reports
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} util.Response{data=model.Report}
// @Failure 404 {object} util.Response "unknown or expired"
// @Router /api/admin/reports/{id} [get]
func (c *ReportController) Get(ctx *gin.Context) {
	report, err := c.Reports.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrReportNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// Download godoc
// @Summary Download a ready report artifact
// @Tags reports
// @Produce json
// @Produce text/csv
// @Param id path string true "Report id"
// @Success 200 {file} byte
// @Failure 404 {object} util.Response "unknown or expired"
// @Failure 409 {object} util.Response "still pending or generating"
// @Failure 422 {object} util.Response "generation failed, message carries the cause"
// @Router /api/admin/reports/{id}/download [get]
func (c *ReportController) Download(ctx *gin.Context) {
	payload, contentType, err := c.Reports.Download(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrReportNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrReportNotReady):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrReportFailed):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.Data(http.StatusOK, contentType, payload)
}
