package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction tags a security event.
type AuditAction string

const (
	AuditLoginSuccess AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailed  AuditAction = "LOGIN_FAILED"
)

// AuditLog represents the audit_logs table
// Rows are append-only; the application never updates or deletes them.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	Action    AuditAction    `gorm:"size:50;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details,omitempty"`
	IPAddress string         `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time      `json:"created_at"`
	User      *User          `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
