package model

type CourseStatus string

const (
	CourseDraft    CourseStatus = "draft"
	CourseActive   CourseStatus = "active"
	CourseArchived CourseStatus = "archived"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title        string       `gorm:"size:200;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	InstructorID uint         `gorm:"index;not null" json:"instructorId"`
	Status       CourseStatus `gorm:"type:enum('draft','active','archived');default:'draft';index" json:"status"`
	Price        float64      `gorm:"default:0" json:"price"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule is a unit of course content. OrderIndex is unique within a
// course so modules render in a stable sequence.
type CourseModule struct {
	BaseModel
	CourseID                 uint   `gorm:"uniqueIndex:idx_course_order;not null" json:"courseId"`
	OrderIndex               int    `gorm:"uniqueIndex:idx_course_order;not null" json:"orderIndex"`
	Title                    string `gorm:"size:200;not null" json:"title"`
	EstimatedDurationMinutes int    `gorm:"default:0" json:"estimatedDurationMinutes"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
