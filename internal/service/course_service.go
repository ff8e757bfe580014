package service

import (
	"context"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type CourseService struct {
	Courses *repository.CourseRepository
	Modules *repository.ModuleRepository
	Cache   SnapshotRefresher
}

func NewCourseService(courses *repository.CourseRepository, modules *repository.ModuleRepository, cache SnapshotRefresher) *CourseService {
	return &CourseService{Courses: courses, Modules: modules, Cache: cache}
}

type CourseRequest struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description"`
	InstructorID uint               `json:"instructorId" binding:"required"`
	Status       model.CourseStatus `json:"status"`
	Price        float64            `json:"price"`
}

func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*model.Course, error) {
	status := req.Status
	if status == "" {
		status = model.CourseDraft
	}
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: req.InstructorID,
		Status:       status,
		Price:        req.Price,
	}
	if err := s.Courses.Create(course); err != nil {
		return nil, err
	}
	// totalCourses changed, every scope's snapshot is stale.
	if s.Cache != nil {
		s.Cache.Refresh(model.ScopeGlobal)
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.InstructorID = req.InstructorID
	if req.Status != "" {
		course.Status = req.Status
	}
	course.Price = req.Price
	if err := s.Courses.Update(course); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Refresh(ScopeForCourse(id))
		s.Cache.Refresh(model.ScopeGlobal)
	}
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, id uint) (*model.Course, error) {
	course, err := s.Courses.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, page, limit int) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Courses.List(page, limit)
}

type ModuleRequest struct {
	Title                    string `json:"title" binding:"required"`
	OrderIndex               int    `json:"orderIndex"`
	EstimatedDurationMinutes int    `json:"estimatedDurationMinutes"`
}

// AddModule appends a module to a course. When no order index is given the
// module goes after the current last one.
func (s *CourseService) AddModule(ctx context.Context, courseID uint, req ModuleRequest) (*model.CourseModule, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}

	orderIndex := req.OrderIndex
	if orderIndex == 0 {
		modules, err := s.Modules.ListByCourse(courseID)
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			if m.OrderIndex >= orderIndex {
				orderIndex = m.OrderIndex + 1
			}
		}
		if orderIndex == 0 {
			orderIndex = 1
		}
	}

	module := &model.CourseModule{
		CourseID:                 courseID,
		OrderIndex:               orderIndex,
		Title:                    req.Title,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
	}
	if err := s.Modules.Create(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) ListModules(ctx context.Context, courseID uint) ([]model.CourseModule, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	return s.Modules.ListByCourse(courseID)
}
