package repository

import (
	"edu_admin_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) Update(enrollment *model.Enrollment) error {
	return r.DB.Save(enrollment).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByCourse(courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("course_id = ?", courseID).Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListAll() ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Find(&enrollments).Error
	return enrollments, err
}

// ListInRange returns enrollments enrolled inside [start, end], optionally
// narrowed to specific courses and users.
func (r *EnrollmentRepository) ListInRange(start, end time.Time, courseIDs, userIDs []uint) ([]model.Enrollment, error) {
	q := r.DB.Where("enrolled_at >= ? AND enrolled_at <= ?", start, end)
	if len(courseIDs) > 0 {
		q = q.Where("course_id IN ?", courseIDs)
	}
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}

	var enrollments []model.Enrollment
	err := q.Order("enrolled_at").Find(&enrollments).Error
	return enrollments, err
}
