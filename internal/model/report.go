package model

import (
	"time"
)

type ReportType string

const (
	ReportEnrollmentSummary ReportType = "enrollment_summary"
	ReportCoursePerformance ReportType = "course_performance"
	ReportUserActivity      ReportType = "user_activity"
	ReportFeedbackSummary   ReportType = "feedback_summary"
)

type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
)

type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportGenerating ReportStatus = "generating"
	ReportReady      ReportStatus = "ready"
	ReportFailed     ReportStatus = "failed"
)

// Report is a generation job plus its eventual artifact reference. Only the
// generating task mutates a row after creation; expired rows are swept by a
// background job.
type Report struct {
	UUIDBase
	Type         ReportType   `gorm:"type:enum('enrollment_summary','course_performance','user_activity','feedback_summary');not null" json:"type"`
	PeriodStart  time.Time    `json:"periodStart"`
	PeriodEnd    time.Time    `json:"periodEnd"`
	CourseIDs    string       `gorm:"size:2000" json:"-"`
	UserIDs      string       `gorm:"size:2000" json:"-"`
	Format       ReportFormat `gorm:"type:enum('json','csv');default:'json'" json:"format"`
	Status       ReportStatus `gorm:"type:enum('pending','generating','ready','failed');default:'pending';index" json:"status"`
	ObjectKey    string       `gorm:"size:512" json:"-"`
	FailureCause string       `gorm:"size:1000" json:"failureCause,omitempty"`
	ExpiresAt    time.Time    `gorm:"index" json:"expiresAt"`
}

func (Report) TableName() string {
	return "reports"
}

// Expired reports whether the report can no longer be downloaded at now.
func (r *Report) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
