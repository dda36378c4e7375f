package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hospital-management-backend/internal/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

// CreateAuditLog appends an audit log entry. Outside a transaction the row
// is committed when this returns.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, userID *uint, action models.AuditAction, details map[string]any, ipAddress string) error {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ipAddress,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding audit details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByAction returns entries with the given action, oldest first.
func (r *AuditRepository) ListByAction(ctx context.Context, action models.AuditAction) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("action = ?", action).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
