package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/pkg/monitoring"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// MetricsService computes dashboard snapshots for a scope: either a single
// course or the platform-wide "global" view.
type MetricsService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	FeedbackRepo   *repository.FeedbackRepository
}

func NewMetricsService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
	feedbackRepo *repository.FeedbackRepository,
) *MetricsService {
	return &MetricsService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		FeedbackRepo:   feedbackRepo,
	}
}

// ScopeForCourse renders a course id as a cache/broadcast scope.
func ScopeForCourse(courseID uint) string {
	return strconv.FormatUint(uint64(courseID), 10)
}

// ParseScope splits a scope into (courseID, isGlobal). A scope is either
// model.ScopeGlobal or a decimal course id.
func ParseScope(scope string) (uint, bool, error) {
	if scope == model.ScopeGlobal {
		return 0, true, nil
	}
	id, err := strconv.ParseUint(scope, 10, 32)
	if err != nil {
		return 0, false, util.ErrCourseNotFound
	}
	return uint(id), false, nil
}

// Aggregate reduces raw records to a snapshot. Pure: no clock reads, no
// stores. Ratio fields stay nil when the denominator is empty; absence of
// data is never reported as zero.
func Aggregate(
	scope string,
	totalCourses int,
	enrollments []model.Enrollment,
	progress []model.ModuleProgress,
	feedback []model.Feedback,
	computedAt time.Time,
) model.DashboardSnapshot {
	snapshot := model.DashboardSnapshot{
		Scope:        scope,
		TotalCourses: totalCourses,
		ComputedAt:   computedAt,
	}

	students := make(map[uint]struct{})
	completed := 0
	for _, e := range enrollments {
		if e.Status != model.EnrollmentDropped {
			students[e.UserID] = struct{}{}
		}
		switch e.Status {
		case model.EnrollmentActive:
			snapshot.ActiveEnrollments++
		case model.EnrollmentCompleted:
			completed++
		}
	}
	snapshot.TotalStudents = len(students)

	if len(enrollments) > 0 {
		rate := float64(completed) / float64(len(enrollments))
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		snapshot.CompletionRate = &rate
	}

	if len(feedback) > 0 {
		sum := 0
		for _, f := range feedback {
			sum += f.Rating
		}
		avg := float64(sum) / float64(len(feedback))
		snapshot.AverageSatisfaction = &avg
	}

	// Mean over participants of their total time, not over raw rows, so a
	// user grinding many modules counts once.
	perUser := make(map[uint]int64)
	for _, p := range progress {
		perUser[p.UserID] += p.TimeSpentSeconds
	}
	if len(perUser) > 0 {
		var total int64
		for _, seconds := range perUser {
			total += seconds
		}
		avg := float64(total) / float64(len(perUser))
		snapshot.AverageTimeSpent = &avg
	}

	return snapshot
}

// Snapshot loads the scope's records and aggregates them. This is the
// expensive path the cache layer guards.
func (s *MetricsService) Snapshot(ctx context.Context, scope string) (*model.DashboardSnapshot, error) {
	start := time.Now()
	defer func() {
		monitoring.SnapshotComputeDuration.Observe(time.Since(start).Seconds())
	}()

	courseID, global, err := ParseScope(scope)
	if err != nil {
		return nil, err
	}

	var (
		totalCourses int
		enrollments  []model.Enrollment
		progress     []model.ModuleProgress
		feedback     []model.Feedback
	)

	if global {
		count, err := s.CourseRepo.Count()
		if err != nil {
			return nil, err
		}
		totalCourses = int(count)

		if enrollments, err = s.EnrollmentRepo.ListAll(); err != nil {
			return nil, err
		}
		if progress, err = s.ProgressRepo.ListAll(); err != nil {
			return nil, err
		}
		if feedback, err = s.FeedbackRepo.ListAll(); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.CourseRepo.FindByID(courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrCourseNotFound
			}
			return nil, err
		}
		totalCourses = 1

		if enrollments, err = s.EnrollmentRepo.ListByCourse(courseID); err != nil {
			return nil, err
		}
		if progress, err = s.ProgressRepo.ListByCourse(courseID); err != nil {
			return nil, err
		}
		if feedback, err = s.FeedbackRepo.ListForCourse(courseID); err != nil {
			return nil, err
		}
	}

	snapshot := Aggregate(scope, totalCourses, enrollments, progress, feedback, time.Now())
	return &snapshot, nil
}

// CourseAnalytics computes a fresh snapshot for every course. Used by the
// per-course listing, which bypasses the scope cache on purpose: one stale
// entry per course is worse than one scan.
func (s *MetricsService) CourseAnalytics(ctx context.Context) ([]model.CourseAnalytics, error) {
	courses, err := s.CourseRepo.ListAll()
	if err != nil {
		return nil, err
	}

	analytics := make([]model.CourseAnalytics, 0, len(courses))
	for _, course := range courses {
		snapshot, err := s.Snapshot(ctx, ScopeForCourse(course.ID))
		if err != nil {
			return nil, err
		}
		analytics = append(analytics, model.CourseAnalytics{
			CourseID: course.ID,
			Title:    course.Title,
			Status:   course.Status,
			Snapshot: *snapshot,
		})
	}
	return analytics, nil
}
