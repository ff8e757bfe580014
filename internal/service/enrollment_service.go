package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/util"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SnapshotRefresher schedules a dashboard snapshot rebuild for a scope.
// Satisfied by CacheService.
type SnapshotRefresher interface {
	Refresh(scope string)
}

// EnrollmentService handles the enrollment lifecycle and module progress.
// Every mutation refreshes the affected course scope and the global scope,
// so dashboard reads never serve data from before the write.
type EnrollmentService struct {
	Enrollments *repository.EnrollmentRepository
	Courses     *repository.CourseRepository
	Users       *repository.UserRepository
	Modules     *repository.ModuleRepository
	Progress    *repository.ProgressRepository
	Cache       SnapshotRefresher
}

func NewEnrollmentService(
	enrollments *repository.EnrollmentRepository,
	courses *repository.CourseRepository,
	users *repository.UserRepository,
	modules *repository.ModuleRepository,
	progress *repository.ProgressRepository,
	cache SnapshotRefresher,
) *EnrollmentService {
	return &EnrollmentService{
		Enrollments: enrollments,
		Courses:     courses,
		Users:       users,
		Modules:     modules,
		Progress:    progress,
		Cache:       cache,
	}
}

func (s *EnrollmentService) refreshScopes(courseID uint) {
	if s.Cache == nil {
		return
	}
	s.Cache.Refresh(ScopeForCourse(courseID))
	s.Cache.Refresh(model.ScopeGlobal)
}

// Enroll creates an active enrollment. A previously dropped enrollment for
// the same pair is reactivated instead of violating the unique index.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.Status == model.CourseArchived {
		return nil, fmt.Errorf("course %d is archived", courseID)
	}

	existing, err := s.Enrollments.FindByUserAndCourse(userID, courseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	if existing != nil {
		if existing.Status != model.EnrollmentDropped {
			return nil, util.ErrAlreadyEnrolled
		}
		existing.Status = model.EnrollmentActive
		existing.EnrolledAt = now
		existing.CompletedAt = nil
		existing.ProgressPercentage = 0
		if err := s.Enrollments.Update(existing); err != nil {
			return nil, err
		}
		s.refreshScopes(courseID)
		return existing, nil
	}

	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: now,
		Status:     model.EnrollmentActive,
	}
	if err := s.Enrollments.Create(enrollment); err != nil {
		return nil, err
	}
	s.refreshScopes(courseID)
	return enrollment, nil
}

// Complete marks an active enrollment completed.
func (s *EnrollmentService) Complete(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	enrollment.Status = model.EnrollmentCompleted
	enrollment.CompletedAt = &now
	enrollment.ProgressPercentage = 100
	if err := s.Enrollments.Update(enrollment); err != nil {
		return nil, err
	}
	s.refreshScopes(courseID)
	return enrollment, nil
}

// Drop marks an active enrollment dropped. Dropped users no longer count
// toward course metrics.
func (s *EnrollmentService) Drop(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	enrollment.Status = model.EnrollmentDropped
	if err := s.Enrollments.Update(enrollment); err != nil {
		return nil, err
	}
	s.refreshScopes(courseID)
	return enrollment, nil
}

func (s *EnrollmentService) activeEnrollment(userID, courseID uint) (*model.Enrollment, error) {
	enrollment, err := s.Enrollments.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.Status != model.EnrollmentActive {
		return nil, util.ErrEnrollmentNotFound
	}
	return enrollment, nil
}

// ProgressUpdate carries one user interaction with a module.
type ProgressUpdate struct {
	TimeSpentDeltaSeconds int64 `json:"timeSpentDeltaSeconds"`
	Completed             bool  `json:"completed"`
}

// RecordProgress upserts the progress row for (user, module), accumulates
// time spent and, when the module set changes completion state, recomputes
// the enrollment's progress percentage.
func (s *EnrollmentService) RecordProgress(ctx context.Context, userID, moduleID uint, update ProgressUpdate) (*model.ModuleProgress, error) {
	if update.TimeSpentDeltaSeconds < 0 {
		return nil, fmt.Errorf("time spent delta must not be negative")
	}

	module, err := s.Modules.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	enrollment, err := s.activeEnrollment(userID, module.CourseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	progress, err := s.Progress.FindByUserAndModule(userID, moduleID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		progress = &model.ModuleProgress{
			UserID:    userID,
			ModuleID:  moduleID,
			StartedAt: now,
		}
		if err := s.Progress.Create(progress); err != nil {
			return nil, err
		}
	}

	progress.TimeSpentSeconds += update.TimeSpentDeltaSeconds
	if update.Completed && progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
	if err := s.Progress.Update(progress); err != nil {
		return nil, err
	}

	if err := s.recomputeProgress(enrollment, module.CourseID); err != nil {
		return nil, err
	}

	s.refreshScopes(module.CourseID)
	return progress, nil
}

// recomputeProgress derives the enrollment percentage from completed
// modules over total modules in the course.
func (s *EnrollmentService) recomputeProgress(enrollment *model.Enrollment, courseID uint) error {
	modules, err := s.Modules.ListByCourse(courseID)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		return nil
	}

	completed := 0
	for _, module := range modules {
		progress, err := s.Progress.FindByUserAndModule(enrollment.UserID, module.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if progress.CompletedAt != nil {
			completed++
		}
	}

	enrollment.ProgressPercentage = float64(completed) / float64(len(modules)) * 100
	return s.Enrollments.Update(enrollment)
}
