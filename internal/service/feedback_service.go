package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type FeedbackService struct {
	Feedback *repository.FeedbackRepository
	Courses  *repository.CourseRepository
	Modules  *repository.ModuleRepository
	Users    *repository.UserRepository
	Cache    SnapshotRefresher
}

func NewFeedbackService(
	feedback *repository.FeedbackRepository,
	courses *repository.CourseRepository,
	modules *repository.ModuleRepository,
	users *repository.UserRepository,
	cache SnapshotRefresher,
) *FeedbackService {
	return &FeedbackService{
		Feedback: feedback,
		Courses:  courses,
		Modules:  modules,
		Users:    users,
		Cache:    cache,
	}
}

// FeedbackRequest rates a course or a module. Rating is a 1-5 integer.
type FeedbackRequest struct {
	TargetType model.FeedbackTarget `json:"targetType" binding:"required"`
	TargetID   uint                 `json:"targetId" binding:"required"`
	Rating     int                  `json:"rating" binding:"required"`
	Comment    string               `json:"comment"`
}

// Submit records one feedback row. Feedback affects the satisfaction
// metric, so the containing course scope and global scope are refreshed.
func (s *FeedbackService) Submit(ctx context.Context, userID uint, req FeedbackRequest) (*model.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, util.ErrInvalidRating
	}
	if _, err := s.Users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	var courseID uint
	switch req.TargetType {
	case model.FeedbackCourse:
		if _, err := s.Courses.FindByID(req.TargetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrCourseNotFound
			}
			return nil, err
		}
		courseID = req.TargetID
	case model.FeedbackModule:
		module, err := s.Modules.FindByID(req.TargetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrModuleNotFound
			}
			return nil, err
		}
		courseID = module.CourseID
	default:
		return nil, util.ErrCourseNotFound
	}

	feedback := &model.Feedback{
		UserID:     userID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.Feedback.Create(feedback); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Refresh(ScopeForCourse(courseID))
		s.Cache.Refresh(model.ScopeGlobal)
	}
	return feedback, nil
}

// ListForCourse returns course feedback plus feedback on its modules.
func (s *FeedbackService) ListForCourse(ctx context.Context, courseID uint) ([]model.Feedback, error) {
	if _, err := s.Courses.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return s.Feedback.ListForCourse(courseID)
}
