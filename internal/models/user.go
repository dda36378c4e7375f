package models

import (
	"strings"
	"time"
)

// Role is the access level of a user inside its hospital.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// User represents the users table.
// Usernames are unique per hospital, not globally.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	HospitalID   uint       `gorm:"not null;uniqueIndex:idx_users_hospital_username,priority:1" json:"hospital_id"`
	Username     string     `gorm:"size:100;not null;uniqueIndex:idx_users_hospital_username,priority:2" json:"username"`
	Email        *string    `gorm:"size:255" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:20;not null" json:"role"`
	FullName     *string    `gorm:"size:255" json:"full_name"`
	Status       *bool      `gorm:"default:true" json:"status"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Hospital *Hospital `gorm:"foreignKey:HospitalID" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Disabled reports whether the user was explicitly switched off.
// A NULL status counts as active.
func (u *User) Disabled() bool {
	return u.Status != nil && !*u.Status
}

// DisplayName returns the full name, or an empty string when unset.
func (u *User) DisplayName() string {
	if u.FullName == nil {
		return ""
	}
	return *u.FullName
}

// NormalizeUsername trims and lower-cases a username. The same function runs
// on every write and every lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
