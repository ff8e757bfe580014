package model

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment links a user to a course. At most one row exists per
// (user, course) pair.
type Enrollment struct {
	BaseModel
	UserID             uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"userId"`
	CourseID           uint             `gorm:"uniqueIndex:idx_user_course;not null;index" json:"courseId"`
	EnrolledAt         time.Time        `json:"enrolledAt"`
	CompletedAt        *time.Time       `json:"completedAt"`
	ProgressPercentage float64          `gorm:"default:0" json:"progressPercentage"`
	Status             EnrollmentStatus `gorm:"type:enum('active','completed','dropped');default:'active';index" json:"status"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// ModuleProgress tracks a user working through a single module. Unique per
// (user, module) pair; TimeSpentSeconds only ever grows.
type ModuleProgress struct {
	BaseModel
	UserID           uint       `gorm:"uniqueIndex:idx_user_module;not null" json:"userId"`
	ModuleID         uint       `gorm:"uniqueIndex:idx_user_module;not null;index" json:"moduleId"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt"`
	TimeSpentSeconds int64      `gorm:"default:0" json:"timeSpentSeconds"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}
