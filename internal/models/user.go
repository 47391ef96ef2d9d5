package models

import (
	"time"
)

// UserRole is a plain role string kept for future RBAC
type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleAdmin  UserRole = "admin"
)

// User is an identity signed in through the external provider
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Stable subject from the identity provider
	ExternalSubjectID string `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`

	Email         string   `gorm:"type:varchar(255);index" json:"email"`
	EmailVerified bool     `gorm:"not null;default:false" json:"email_verified"`
	FullName      string   `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL     string   `gorm:"type:varchar(512)" json:"avatar_url"`
	Role          UserRole `gorm:"type:varchar(50);not null;default:'client'" json:"role"`
	IsActive      bool     `gorm:"not null;default:true" json:"is_active"`

	LastLoginAt time.Time `json:"last_login_at"`
}

// DisplayName is the full name when known, otherwise the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
