package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"   // Manages the question bank
	UserRoleLearner UserRole = "learner" // Practices questions
)

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email            string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Role             UserRole       `gorm:"size:20;default:learner" json:"role"`
	TokenHash        string         `gorm:"index;size:64" json:"-"`
	TokenCreatedAt   *time.Time     `json:"-"`
	FailedLoginCount int            `json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
