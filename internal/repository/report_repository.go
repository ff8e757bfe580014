package repository

import (
	"edu_admin_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) Create(report *model.Report) error {
	return r.DB.Create(report).Error
}

func (r *ReportRepository) FindByID(id string) (*model.Report, error) {
	var report model.Report
	err := r.DB.Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Transition moves a report from one status to another with a conditional
// update, so a row can never leave a terminal state or skip the state
// machine. Returns false when the row was not in the expected status.
func (r *ReportRepository) Transition(id string, from, to model.ReportStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := r.DB.Model(&model.Report{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListExpired returns reports whose retention window has passed.
func (r *ReportRepository) ListExpired(now time.Time) ([]model.Report, error) {
	var reports []model.Report
	err := r.DB.Where("expires_at <= ?", now).Find(&reports).Error
	return reports, err
}

func (r *ReportRepository) Delete(id string) error {
	return r.DB.Unscoped().Where("id = ?", id).Delete(&model.Report{}).Error
}
