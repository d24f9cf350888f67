package models

import (
	"strings"
	"time"
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email          string     `gorm:"size:254;index" json:"email"`
	FirstName      string     `gorm:"size:150" json:"first_name"`
	LastName       string     `gorm:"size:150" json:"last_name"`
	Phone          string     `gorm:"size:20" json:"phone"`
	PasswordHash   string     `gorm:"size:255" json:"-"`
	GoogleID       *string    `gorm:"uniqueIndex;size:255" json:"-"` // nil for password signups (avoids duplicate '' on unique index)
	IsVerified     bool       `gorm:"not null;index" json:"is_verified"`
	IsStaff        bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser    bool       `gorm:"not null" json:"is_superuser"`
	ProfilePicture string     `gorm:"size:512" json:"profile_picture"`
	IDDocument     string     `gorm:"size:512" json:"-"`
	LastLogin      *time.Time `json:"last_login"`
	DateJoined     time.Time  `gorm:"autoCreateTime;index" json:"date_joined"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name; empty when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, falling back to the username.
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}
