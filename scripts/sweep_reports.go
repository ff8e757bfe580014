// Manual report retention sweep.
//
// The sweep also runs inside the server on a schedule; this script exists
// for operational use, for example after lowering retention_hours in the
// config while the server is stopped.
//
// Usage: go run scripts/sweep_reports.go

package main

import (
	"context"
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/pkg/database"
	"edu_admin_backend/pkg/logger"
	"log"
	"time"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	reports := repository.NewReportRepository(db)
	storage := service.NewStorageService(cfg)

	svc := service.NewReportService(
		reports,
		nil, // data source unused by the sweep
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		storage,
		time.Duration(cfg.Reports.RetentionHours)*time.Hour,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc.SweepExpired(ctx)
	log.Println("Report sweep finished")
}
