package models

import "time"

// Roles recognised by the admin guard.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered reader.
type User struct {
	BaseModel
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Phone         string  `gorm:"size:32;uniqueIndex" json:"phone"`
	Email         *string `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash  string  `json:"-"`
	Profile       string  `json:"profile"`
	Role          string  `gorm:"size:16;default:user" json:"role"`
	Code          string  `gorm:"size:6" json:"-"`
	ReferenceCode string  `gorm:"size:16" json:"reference_code"`
	IsVerified    bool    `json:"is_verified"`
}

// Notification is a per-user inbox message.
type Notification struct {
	BaseModel
	UserID  uint   `gorm:"index" json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PasswordResetToken tracks one forgot-password flow.
type PasswordResetToken struct {
	BaseModel
	UserID    uint       `gorm:"index" json:"user_id"`
	Token     string     `gorm:"size:64;uniqueIndex" json:"-"`
	Code      string     `gorm:"size:6" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	Attempts  int        `gorm:"not null;default:0" json:"-"`
	UsedAt    *time.Time `json:"used_at"`
}
