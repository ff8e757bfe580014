package controller

import (
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Cache *service.CacheService
	Hub   *service.DashboardHub
}

func NewDashboardController(cache *service.CacheService, hub *service.DashboardHub) *DashboardController {
	return &DashboardController{Cache: cache, Hub: hub}
}

// scopeFromQuery resolves the optional courseId query parameter to a
// snapshot scope, defaulting to global.
func scopeFromQuery(ctx *gin.Context) (string, bool) {
	raw := ctx.Query("courseId")
	if raw == "" {
		return model.ScopeGlobal, true
	}
	courseID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || courseID == 0 {
		util.BadRequest(ctx, "courseId must be a positive integer")
		return "", false
	}
	return service.ScopeForCourse(uint(courseID)), true
}

// Overview godoc
// @Summary Dashboard overview metrics
// @Description Returns the aggregated metrics snapshot, globally or for one course
// @Tags dashboard
// @Produce json
// @Param courseId query int false "Restrict metrics to one course"
// @Success 200 {object} util.Response{data=model.DashboardSnapshot}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/admin/dashboard/overview [get]
func (c *DashboardController) Overview(ctx *gin.Context) {
	scope, ok := scopeFromQuery(ctx)
	if !ok {
		return
	}

	snapshot, err := c.Cache.Snapshot(ctx.Request.Context(), scope)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, snapshot)
}

// Refresh godoc
// @Summary Force a snapshot rebuild
// @Tags dashboard
// @Produce json
// @Param courseId query int false "Restrict to one course"
// @Success 202 {object} util.Response
// @Router /api/admin/dashboard/refresh [post]
func (c *DashboardController) Refresh(ctx *gin.Context) {
	scope, ok := scopeFromQuery(ctx)
	if !ok {
		return
	}
	c.Cache.Refresh(scope)
	util.Accepted(ctx, gin.H{"scope": scope})
}

// Stream godoc
// @Summary Live dashboard updates over SSE
// @Description Emits the current snapshot immediately, then a snapshot event after each recomputation
// @Tags dashboard
// @Produce text/event-stream
// @Param courseId query int false "Restrict to one course"
// @Router /api/admin/dashboard/stream [get]
func (c *DashboardController) Stream(ctx *gin.Context) {
	scope, ok := scopeFromQuery(ctx)
	if !ok {
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	sub := c.Hub.Subscribe(scope)
	defer c.Hub.Unsubscribe(sub)

	// Late joiners get current state without waiting for the next change.
	if snapshot, err := c.Cache.Snapshot(ctx.Request.Context(), scope); err == nil {
		ctx.SSEvent("snapshot", snapshot)
		ctx.Writer.Flush()
	}

	for {
		select {
		case snapshot, ok := <-sub.Updates:
			if !ok {
				return
			}
			ctx.SSEvent("snapshot", snapshot)
			ctx.Writer.Flush()
		case <-ctx.Request.Context().Done():
			return
		}
	}
}

// Websocket serves the same update stream over a websocket connection.
func (c *DashboardController) Websocket(ctx *gin.Context) {
	scope, ok := scopeFromQuery(ctx)
	if !ok {
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, scope)
}
