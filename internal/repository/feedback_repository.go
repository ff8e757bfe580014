package repository

import (
	"edu_admin_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(feedback *model.Feedback) error {
	return r.DB.Create(feedback).Error
}

// ListForCourse returns feedback aimed at the course itself plus feedback
// aimed at any of its modules.
func (r *FeedbackRepository) ListForCourse(courseID uint) ([]model.Feedback, error) {
	var rows []model.Feedback

	moduleIDs := r.DB.Model(&model.CourseModule{}).
		Select("id").
		Where("course_id = ?", courseID)

	err := r.DB.
		Where("(target_type = ? AND target_id = ?) OR (target_type = ? AND target_id IN (?))",
			model.FeedbackCourse, courseID, model.FeedbackModule, moduleIDs).
		Find(&rows).Error
	return rows, err
}

func (r *FeedbackRepository) ListAll() ([]model.Feedback, error) {
	var rows []model.Feedback
	err := r.DB.Find(&rows).Error
	return rows, err
}

func (r *FeedbackRepository) ListInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Feedback, error) {
	q := r.DB.Where("created_at >= ? AND created_at <= ?", start, end)
	if len(courseIDs) > 0 {
		q = q.Where("target_type = ? AND target_id IN ?", model.FeedbackCourse, courseIDs)
	}
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}

	var rows []model.Feedback
	err := q.Order("created_at").Find(&rows).Error
	return rows, err
}
