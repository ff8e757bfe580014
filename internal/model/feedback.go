package model

type FeedbackTarget string

const (
	FeedbackCourse FeedbackTarget = "course"
	FeedbackModule FeedbackTarget = "module"
)

// Feedback is insert-only; rows are never updated or deleted by the
// dashboard core.
type Feedback struct {
	BaseModel
	UserID     uint           `gorm:"index;not null" json:"userId"`
	TargetType FeedbackTarget `gorm:"type:enum('course','module');not null" json:"targetType"`
	TargetID   uint           `gorm:"index;not null" json:"targetId"`
	Rating     int            `gorm:"not null" json:"rating"`
	Comment    string         `gorm:"type:text" json:"comment"`
}

func (Feedback) TableName() string {
	return "feedback"
}
