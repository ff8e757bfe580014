package app

import (
	"context"
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/controller"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/pkg/configwatcher"
	"edu_admin_backend/pkg/database"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"edu_admin_backend/pkg/security"
	"edu_admin_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	cron     *cron.Cron
}

type repositories struct {
	user       *repository.UserRepository
	course     *repository.CourseRepository
	module     *repository.ModuleRepository
	progress   *repository.ProgressRepository
	enrollment *repository.EnrollmentRepository
	feedback   *repository.FeedbackRepository
	report     *repository.ReportRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	metrics    *service.MetricsService
	risk       *service.RiskService
	cache      *service.CacheService
	hub        *service.DashboardHub
	report     *service.ReportService
	course     *service.CourseService
	enrollment *service.EnrollmentService
	feedback   *service.FeedbackService
}

type controllers struct {
	auth       *controller.AuthController
	dashboard  *controller.DashboardController
	analytics  *controller.AnalyticsController
	report     *controller.ReportController
	course     *controller.CourseController
	enrollment *controller.EnrollmentController
	feedback   *controller.FeedbackController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		course:     repository.NewCourseRepository(db),
		module:     repository.NewModuleRepository(db),
		progress:   repository.NewProgressRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		feedback:   repository.NewFeedbackRepository(db),
		report:     repository.NewReportRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.metrics = service.NewMetricsService(repos.course, repos.enrollment, repos.progress, repos.feedback)
	s.risk = service.NewRiskService(repos.user, repos.enrollment, repos.feedback, cfg.Risk)

	s.hub = service.NewDashboardHub(rdb)
	go s.hub.Run()

	ttl := time.Duration(cfg.Dashboard.CacheTTLSeconds) * time.Second
	s.cache = service.NewCacheService(service.NewRedisSnapshotStore(rdb), s.metrics.Snapshot, s.hub, ttl)

	s.report = service.NewReportService(
		repos.report,
		&service.RepositoryReportData{
			Enrollments: repos.enrollment,
			Feedback:    repos.feedback,
			CourseRepo:  repos.course,
		},
		repos.course,
		repos.user,
		s.storage,
		time.Duration(cfg.Reports.RetentionHours)*time.Hour,
	)

	s.course = service.NewCourseService(repos.course, repos.module, s.cache)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course, repos.user, repos.module, repos.progress, s.cache)
	s.feedback = service.NewFeedbackService(repos.feedback, repos.course, repos.module, repos.user, s.cache)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		dashboard:  controller.NewDashboardController(s.cache, s.hub),
		analytics:  controller.NewAnalyticsController(s.metrics, s.risk),
		report:     controller.NewReportController(s.report),
		course:     controller.NewCourseController(s.course, s.feedback),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		feedback:   controller.NewFeedbackController(s.feedback),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks schedules the report retention sweep.
func (a *App) startBackgroundTasks(s *services) {
	a.cron = cron.New()
	_, err := a.cron.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.report.SweepExpired(ctx)
	})
	if err != nil {
		logger.Log.Fatal("Failed to schedule report sweep", zap.Error(err))
	}
	a.cron.Start()
}

// watchConfig reloads tunable policy on config file changes. Only the risk
// policy is hot-swappable; everything else requires a restart.
func (a *App) watchConfig(s *services) {
	go configwatcher.WatchConfig("configs", func(cfg *config.Config) {
		s.risk.UpdatePolicy(cfg.Risk)
		logger.Log.Info("Risk policy reloaded from config")
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("admin-dashboard", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)
	app.watchConfig(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cron != nil {
		a.cron.Stop()
	}
	if a.services != nil && a.services.hub != nil {
		a.services.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
