package app

import (
	"testing"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/controller"

	"github.com/gin-gonic/gin"
)

// Registration only wires handlers, so empty controllers are enough to
// assert the route table without a database behind them.
func TestAdminRouteTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := &App{Config: &config.Config{}}
	router := gin.New()
	a.registerRoutes(router, &controllers{
		auth:       &controller.AuthController{},
		dashboard:  &controller.DashboardController{},
		analytics:  &controller.AnalyticsController{},
		report:     &controller.ReportController{},
		course:     &controller.CourseController{},
		enrollment: &controller.EnrollmentController{},
		feedback:   &controller.FeedbackController{},
		health:     &controller.HealthController{},
	}, a.Config)

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /api/admin/dashboard/overview",
		"POST /api/admin/dashboard/refresh",
		"GET /api/admin/analytics/courses",
		"GET /api/admin/courses/analytics",
		"GET /api/admin/analytics/users",
		"GET /api/admin/users/analytics",
		"POST /api/admin/reports",
		"POST /api/admin/reports/generate",
		"GET /api/admin/reports/:id",
		"GET /api/admin/reports/:id/download",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s is not registered", route)
		}
	}
}
