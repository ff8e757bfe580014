package repository

import (
	"edu_admin_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) Create(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *ModuleRepository) FindByID(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.First(&module, id).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *ModuleRepository) ListByCourse(courseID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("course_id = ?", courseID).Order("order_index").Find(&modules).Error
	return modules, err
}

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserAndModule(userID, moduleID uint) (*model.ModuleProgress, error) {
	var progress model.ModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Create(progress *model.ModuleProgress) error {
	return r.DB.Create(progress).Error
}

func (r *ProgressRepository) Update(progress *model.ModuleProgress) error {
	return r.DB.Save(progress).Error
}

// ListByCourse returns every progress row attached to the course's modules.
func (r *ProgressRepository) ListByCourse(courseID uint) ([]model.ModuleProgress, error) {
	var rows []model.ModuleProgress
	err := r.DB.
		Joins("JOIN course_modules ON course_modules.id = module_progress.module_id").
		Where("course_modules.course_id = ?", courseID).
		Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) ListAll() ([]model.ModuleProgress, error) {
	var rows []model.ModuleProgress
	err := r.DB.Find(&rows).Error
	return rows, err
}
