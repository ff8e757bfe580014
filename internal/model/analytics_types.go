package model

import (
	"time"
)

// ScopeGlobal is the platform-wide aggregation scope. Course scopes use the
// decimal course id.
const ScopeGlobal = "global"

// DashboardSnapshot is an immutable computed metrics result for one scope.
// Ratio fields are pointers: nil means "no data", which is never collapsed
// to zero.
//
// swagger:model DashboardSnapshot
type DashboardSnapshot struct {
	Scope               string    `json:"scope"`
	TotalCourses        int       `json:"totalCourses"`
	TotalStudents       int       `json:"totalStudents"`
	ActiveEnrollments   int       `json:"activeEnrollments"`
	CompletionRate      *float64  `json:"completionRate"`
	AverageSatisfaction *float64  `json:"averageSatisfaction"`
	AverageTimeSpent    *float64  `json:"averageTimeSpent"`
	ComputedAt          time.Time `json:"computedAt"`
}

// CourseAnalytics pairs a course with its snapshot for the per-course
// analytics listing.
type CourseAnalytics struct {
	CourseID uint              `json:"courseId"`
	Title    string            `json:"title"`
	Status   CourseStatus      `json:"status"`
	Snapshot DashboardSnapshot `json:"snapshot"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the classifier output for one user. Signal fields are
// nil when the underlying data is absent.
type RiskAssessment struct {
	UserID             uint      `json:"userId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Score              float64   `json:"score"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	DaysSinceLogin     *int      `json:"daysSinceLogin"`
	CompletionRate     *float64  `json:"completionRate"`
	AverageRatingGiven *float64  `json:"averageRatingGiven"`
}
