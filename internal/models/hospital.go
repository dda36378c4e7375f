package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Hospital represents a tenant of the system.
// ExternalID keeps the identifier as registered; HospitalKey is its
// lower-cased form and carries the unique index, so two registrations that
// differ only in case collide in the datastore.
type Hospital struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"column:hospital_id;size:50;not null" json:"hospital_id"`
	HospitalKey string    `gorm:"size:50;not null;uniqueIndex" json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Address     *string   `gorm:"type:text" json:"address,omitempty"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Hospital model
func (Hospital) TableName() string {
	return "hospitals"
}

// BeforeSave keeps HospitalKey in step with ExternalID.
func (h *Hospital) BeforeSave(tx *gorm.DB) error {
	h.HospitalKey = HospitalKey(h.ExternalID)
	return nil
}

// Deactivated reports whether the hospital was explicitly switched off.
// A NULL flag counts as active.
func (h *Hospital) Deactivated() bool {
	return h.IsActive != nil && !*h.IsActive
}

// NormalizeHospitalID trims the external identifier exactly as it is stored.
func NormalizeHospitalID(id string) string {
	return strings.TrimSpace(id)
}

// HospitalKey returns the case-folded lookup key for an external identifier.
func HospitalKey(id string) string {
	return strings.ToLower(NormalizeHospitalID(id))
}
