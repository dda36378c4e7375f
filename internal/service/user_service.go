package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/metrics"
	"hospital-management-backend/internal/models"
	"hospital-management-backend/internal/repository"
	"hospital-management-backend/pkg/utils"
)

// UserService manages the users of a single hospital. Every operation is
// scoped to the hospital of the calling principal.
type UserService struct {
	userRepo *repository.UserRepository
	hasher   utils.PasswordHasher
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, hasher utils.PasswordHasher, m *metrics.Metrics, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		metrics:  m,
		log:      log,
	}
}

// CreateUserInput describes a new user. A nil Password means the client did
// not send a string.
type CreateUserInput struct {
	Username string
	Email    *string
	Password *string
	Role     string
	FullName *string
}

// ResolvePrincipal loads the subject of a verified token. Unknown and
// disabled users are rejected, so a token dies with its user.
func (s *UserService) ResolvePrincipal(ctx context.Context, claims *utils.Claims) (*Principal, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Unauthenticated("Could not validate credentials")
	}
	if err != nil {
		return nil, apperror.Internal("Could not validate credentials", fmt.Errorf("loading token subject: %w", err))
	}
	if user.Disabled() {
		return nil, apperror.Unauthenticated("User account is disabled")
	}
	return &Principal{User: user, HospitalCode: claims.HospitalID}, nil
}

// List returns every user of the principal's hospital ordered by ID
func (s *UserService) List(ctx context.Context, p *Principal) ([]models.User, error) {
	users, err := s.userRepo.ListByHospital(ctx, p.HospitalID())
	if err != nil {
		return nil, apperror.Internal("Failed to list users", err)
	}
	return users, nil
}

// Create adds a user to the principal's hospital.
func (s *UserService) Create(ctx context.Context, p *Principal, in CreateUserInput) (*models.User, error) {
	role := models.Role(strings.TrimSpace(in.Role))
	if !role.Valid() {
		return nil, apperror.BadRequest("Invalid role")
	}
	password, err := validatePassword(in.Password, "password")
	if err != nil {
		return nil, err
	}
	username := models.NormalizeUsername(in.Username)
	if username == "" {
		return nil, apperror.BadRequest("username must not be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal("Failed to create user", fmt.Errorf("hashing password: %w", err))
	}

	user := &models.User{
		HospitalID:   p.HospitalID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     trimmedOrNil(in.FullName),
	}
	if email := trimmedOrNil(in.Email); email != nil {
		normalized := models.NormalizeEmail(*email)
		user.Email = &normalized
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Username already exists in this hospital")
		}
		return nil, apperror.Internal("Failed to create user", err)
	}

	s.metrics.RecordUserCreated()
	s.log.Info("User created",
		zap.Uint("user_id", user.ID),
		zap.Uint("hospital_id", user.HospitalID),
		zap.String("role", string(role)),
		zap.Uint("created_by", p.UserID()),
	)

	stored, err := s.userRepo.FindInHospital(ctx, p.HospitalID(), user.ID)
	if err != nil {
		return nil, apperror.Internal("Failed to create user", fmt.Errorf("re-reading user: %w", err))
	}
	return stored, nil
}

// ToggleStatus flips the active flag of a user in the principal's hospital.
// Users of other hospitals are reported as not found.
func (s *UserService) ToggleStatus(ctx context.Context, p *Principal, userID uint) (*models.User, error) {
	if err := s.userRepo.ToggleStatus(ctx, p.HospitalID(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Internal("Failed to update user", err)
	}

	user, err := s.userRepo.FindInHospital(ctx, p.HospitalID(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to update user", err)
	}

	s.log.Info("User status toggled",
		zap.Uint("user_id", user.ID),
		zap.Bool("active", !user.Disabled()),
		zap.Uint("changed_by", p.UserID()),
	)
	return user, nil
}

// Me returns the caller's own record as loaded by the authorization gate.
func (s *UserService) Me(p *Principal) *models.User {
	return p.User
}
