package model

import (
	"time"
)

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"size:100;unique;not null" json:"email"`
	Password    string     `gorm:"size:100;not null" json:"-"`
	Role        UserRole   `gorm:"type:enum('student','instructor','admin');default:'student'" json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
}

func (User) TableName() string {
	return "users"
}
