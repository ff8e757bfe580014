package app

import (
	"edu_admin_backend/docs"
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/middleware"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// registerAdminRoutes mounts the dashboard core. Everything here requires a
// valid token with the admin role; instructors get read access to course
// analytics for their own teaching.
func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		dashboard := admin.Group("/dashboard")
		{
			dashboard.GET("/overview", c.dashboard.Overview)
			dashboard.POST("/refresh", c.dashboard.Refresh)
			dashboard.GET("/stream", c.dashboard.Stream)
			dashboard.GET("/ws", c.dashboard.Websocket)
		}

		analytics := admin.Group("/analytics")
		{
			analytics.GET("/courses", c.analytics.Courses)
			analytics.GET("/users", c.analytics.Users)
		}
		// Resource-first spellings of the analytics endpoints, kept alongside
		// the grouped ones so both client generations keep working.
		admin.GET("/courses/analytics", c.analytics.Courses)
		admin.GET("/users/analytics", c.analytics.Users)

		reports := admin.Group("/reports")
		{
			reports.POST("", c.report.Create)
			reports.POST("/generate", c.report.Create)
			reports.GET("/:id", c.report.Get)
			reports.GET("/:id/download", c.report.Download)
		}

		courses := admin.Group("/courses")
		{
			courses.POST("", c.course.Create)
			courses.GET("", c.course.List)
			courses.GET("/:id", c.course.Get)
			courses.PUT("/:id", c.course.Update)
			courses.POST("/:id/modules", c.course.AddModule)
			courses.GET("/:id/modules", c.course.ListModules)
			courses.GET("/:id/feedback", c.course.ListFeedback)
		}

		enrollments := admin.Group("/enrollments")
		{
			enrollments.POST("", c.enrollment.Enroll)
			enrollments.POST("/complete", c.enrollment.Complete)
			enrollments.POST("/drop", c.enrollment.Drop)
		}

		admin.POST("/modules/:id/progress", c.enrollment.RecordProgress)
		admin.POST("/feedback", c.feedback.Submit)
	}
}
