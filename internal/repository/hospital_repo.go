package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hospital-management-backend/internal/models"
)

var ErrHospitalNotFound = errors.New("hospital not found")

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepo(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *HospitalRepository) WithTx(tx *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: tx}
}

// GetHospitalByExternalID looks a hospital up by its external identifier,
// ignoring case and surrounding whitespace. Inactive hospitals are returned
// too; callers decide what inactive means for them.
func (r *HospitalRepository) GetHospitalByExternalID(ctx context.Context, hospitalID string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).
		Where("hospital_key = ?", models.HospitalKey(hospitalID)).
		First(&hospital).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &hospital, nil
}

// GetHospitalByID retrieves a hospital by its internal ID
func (r *HospitalRepository) GetHospitalByID(ctx context.Context, id uint) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).First(&hospital, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &hospital, nil
}

// ExternalIDExists reports whether a hospital with the same folded external
// identifier is already registered.
func (r *HospitalRepository) ExternalIDExists(ctx context.Context, hospitalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Hospital{}).
		Where("hospital_key = ?", models.HospitalKey(hospitalID)).
		Count(&count).Error
	return count > 0, err
}

// CreateHospital inserts the hospital and fills in its generated ID
func (r *HospitalRepository) CreateHospital(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Create(hospital).Error
}
