package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"hospital-management-backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByUsername finds a user of one hospital by case-insensitive username
func (r *UserRepository) FindByUsername(ctx context.Context, hospitalID uint, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? AND hospital_id = ?", models.NormalizeUsername(username), hospitalID).
		First(&user).Error
	return firstUser(&user, err)
}

// FindByID finds a user by ID regardless of hospital. Only the
// authorization gate uses this, to re-load the token's subject.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	return firstUser(&user, err)
}

// FindInHospital finds a user by ID only if it belongs to hospitalID.
func (r *UserRepository) FindInHospital(ctx context.Context, hospitalID, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND hospital_id = ?", id, hospitalID).
		First(&user).Error
	return firstUser(&user, err)
}

// ListByHospital returns all users of a hospital ordered by ID
func (r *UserRepository) ListByHospital(ctx context.Context, hospitalID uint) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateLastLogin stamps the user's last successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// ToggleStatus flips the user's status flag in a single statement, scoped
// to its hospital. A NULL status counts as true and becomes false.
func (r *UserRepository) ToggleStatus(ctx context.Context, hospitalID, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND hospital_id = ?", id, hospitalID).
		Update("status", gorm.Expr("NOT COALESCE(status, ?)", true))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func firstUser(user *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
