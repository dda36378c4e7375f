package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/metrics"
	"hospital-management-backend/internal/models"
	"hospital-management-backend/internal/repository"
	"hospital-management-backend/pkg/utils"
)

const defaultAdminFullName = "Administrator"

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	DB             *gorm.DB
	Hospitals      *repository.HospitalRepository
	Users          *repository.UserRepository
	Audit          *repository.AuditRepository
	Hasher         utils.PasswordHasher
	Tokens         *utils.TokenManager
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	RegisterSecret string
	// Now defaults to time.Now.
	Now func() time.Time
}

type AuthService struct {
	db             *gorm.DB
	hospitalRepo   *repository.HospitalRepository
	userRepo       *repository.UserRepository
	auditRepo      *repository.AuditRepository
	hasher         utils.PasswordHasher
	tokens         *utils.TokenManager
	metrics        *metrics.Metrics
	log            *zap.Logger
	registerSecret []byte
	now            func() time.Time
}

func NewAuthService(d AuthDeps) *AuthService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		db:             d.DB,
		hospitalRepo:   d.Hospitals,
		userRepo:       d.Users,
		auditRepo:      d.Audit,
		hasher:         d.Hasher,
		tokens:         d.Tokens,
		metrics:        d.Metrics,
		log:            d.Logger,
		registerSecret: []byte(d.RegisterSecret),
		now:            now,
	}
}

// LoginInput carries the credentials of a login attempt. A nil Password
// means the client did not send a string.
type LoginInput struct {
	HospitalID string
	Username   string
	Password   *string
	ClientIP   string
}

// LoginResult is returned to the client on a successful login
type LoginResult struct {
	AccessToken string  `json:"access_token"`
	Role        string  `json:"role"`
	FullName    *string `json:"full_name"`
	HospitalID  string  `json:"hospital_id"`
}

// Login authenticates a user of one hospital and mints a session token.
// Every attempt that gets as far as the hospital lookup leaves exactly one
// audit row behind.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	hospitalID := models.NormalizeHospitalID(in.HospitalID)
	username := models.NormalizeUsername(in.Username)

	if in.Password == nil || utils.PasswordTooLong(*in.Password) {
		s.metrics.RecordLogin(metrics.LoginRejected)
		return nil, apperror.InvalidCredentials()
	}

	hospital, err := s.hospitalRepo.GetHospitalByExternalID(ctx, hospitalID)
	if errors.Is(err, repository.ErrHospitalNotFound) {
		return nil, s.loginFailed(ctx, hospitalID, username, in.ClientIP, "unknown hospital")
	}
	if err != nil {
		return nil, apperror.Internal("Login failed", fmt.Errorf("looking up hospital: %w", err))
	}
	if hospital.Deactivated() {
		return nil, s.loginFailed(ctx, hospitalID, username, in.ClientIP, "hospital inactive")
	}

	user, err := s.userRepo.FindByUsername(ctx, hospital.ID, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, s.loginFailed(ctx, hospitalID, username, in.ClientIP, "unknown user")
	}
	if err != nil {
		return nil, apperror.Internal("Login failed", fmt.Errorf("looking up user: %w", err))
	}
	if user.Disabled() {
		return nil, s.loginFailed(ctx, hospitalID, username, in.ClientIP, "user disabled")
	}
	if !s.hasher.Compare(user.PasswordHash, *in.Password) {
		return nil, s.loginFailed(ctx, hospitalID, username, in.ClientIP, "wrong password")
	}

	loginAt := s.now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
			return fmt.Errorf("updating last login: %w", err)
		}
		if err := s.auditRepo.WithTx(tx).CreateAuditLog(ctx, &user.ID, models.AuditLoginSuccess, nil, in.ClientIP); err != nil {
			return fmt.Errorf("writing audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Internal("Login failed", err)
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role), hospital.ExternalID)
	if err != nil {
		return nil, apperror.Internal("Login failed", err)
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	s.log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("hospital_id", hospital.ExternalID),
		zap.String("role", string(user.Role)),
	)

	return &LoginResult{
		AccessToken: token,
		Role:        string(user.Role),
		FullName:    user.FullName,
		HospitalID:  hospital.ExternalID,
	}, nil
}

// loginFailed records the failed attempt and returns the uniform credential
// error. The audit row is committed on its own, outside any transaction, and
// is written even if the client has already gone away.
func (s *AuthService) loginFailed(ctx context.Context, hospitalID, username, clientIP, reason string) error {
	details := map[string]any{
		"username":    username,
		"hospital_id": hospitalID,
	}
	if err := s.auditRepo.CreateAuditLog(context.WithoutCancel(ctx), nil, models.AuditLoginFailed, details, clientIP); err != nil {
		s.log.Error("Failed to write audit log", zap.Error(err), zap.String("action", string(models.AuditLoginFailed)))
	}

	s.metrics.RecordLogin(metrics.LoginFailed)
	s.log.Warn("Login failed",
		zap.String("reason", reason),
		zap.String("hospital_id", hospitalID),
		zap.String("username", username),
		zap.String("ip", clientIP),
	)
	return apperror.InvalidCredentials()
}

// RegisterHospitalInput is the bootstrap request for a new tenant.
type RegisterHospitalInput struct {
	RegisterSecret string
	HospitalID     string
	Name           string
	Email          string
	Address        *string
	AdminUsername  string
	AdminPassword  *string
	AdminFullName  *string
}

// RegisterHospitalResult describes the created tenant.
type RegisterHospitalResult struct {
	Message    string `json:"message"`
	HospitalID string `json:"hospital_id"`

	Hospital *models.Hospital `json:"-"`
	Admin    *models.User     `json:"-"`
}

// RegisterHospital creates a hospital together with its first admin user.
// Both rows are written in one transaction; a failure leaves neither.
func (s *AuthService) RegisterHospital(ctx context.Context, in RegisterHospitalInput) (*RegisterHospitalResult, error) {
	if subtle.ConstantTimeCompare([]byte(in.RegisterSecret), s.registerSecret) != 1 {
		s.metrics.RecordRegistration(metrics.RegistrationForbidden)
		return nil, apperror.Forbidden("Invalid register secret")
	}

	result, err := s.registerHospital(ctx, in)
	if err != nil {
		s.metrics.RecordRegistration(registrationOutcome(err))
		return nil, err
	}

	s.metrics.RecordRegistration(metrics.RegistrationCreated)
	s.log.Info("Hospital registered",
		zap.String("hospital_id", result.HospitalID),
		zap.Uint("admin_id", result.Admin.ID),
	)
	return result, nil
}

func (s *AuthService) registerHospital(ctx context.Context, in RegisterHospitalInput) (*RegisterHospitalResult, error) {
	password, err := validatePassword(in.AdminPassword, "admin_password")
	if err != nil {
		return nil, err
	}

	hospitalID := models.NormalizeHospitalID(in.HospitalID)
	username := models.NormalizeUsername(in.AdminUsername)
	email := models.NormalizeEmail(in.Email)
	switch {
	case hospitalID == "":
		return nil, apperror.BadRequest("hospital_id must not be empty")
	case username == "":
		return nil, apperror.BadRequest("admin_username must not be empty")
	case email == "":
		return nil, apperror.BadRequest("email must not be empty")
	}

	exists, err := s.hospitalRepo.ExternalIDExists(ctx, hospitalID)
	if err != nil {
		return nil, apperror.Internal(registrationFailedMessage, fmt.Errorf("checking hospital id: %w", err))
	}
	if exists {
		return nil, apperror.Conflict("Hospital ID already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal(registrationFailedMessage, fmt.Errorf("hashing password: %w", err))
	}

	fullName := trimmedOrNil(in.AdminFullName)
	if fullName == nil {
		name := defaultAdminFullName
		fullName = &name
	}

	hospital := &models.Hospital{
		ExternalID: hospitalID,
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Address:    trimmedOrNil(in.Address),
	}
	admin := &models.User{
		Username:     username,
		Email:        &email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FullName:     fullName,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.hospitalRepo.WithTx(tx).CreateHospital(ctx, hospital); err != nil {
			return fmt.Errorf("creating hospital: %w", err)
		}
		admin.HospitalID = hospital.ID
		if err := s.userRepo.WithTx(tx).CreateUser(ctx, admin); err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("A record with these details already exists (check email or username).")
	}
	if err != nil {
		return nil, apperror.Internal(registrationFailedMessage, err)
	}

	// Re-read so the result carries the datastore defaults.
	if stored, err := s.hospitalRepo.GetHospitalByID(ctx, hospital.ID); err == nil {
		hospital = stored
	} else {
		s.log.Warn("Could not re-read registered hospital", zap.Uint("id", hospital.ID), zap.Error(err))
	}
	if stored, err := s.userRepo.FindByID(ctx, admin.ID); err == nil {
		admin = stored
	} else {
		s.log.Warn("Could not re-read registered admin", zap.Uint("id", admin.ID), zap.Error(err))
	}

	return &RegisterHospitalResult{
		Message:    fmt.Sprintf("Hospital %s registered successfully", hospital.ExternalID),
		HospitalID: hospital.ExternalID,
		Hospital:   hospital,
		Admin:      admin,
	}, nil
}

const registrationFailedMessage = "An unexpected server error occurred during registration. Please verify field formatting."

func registrationOutcome(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindBadRequest:
		return metrics.RegistrationInvalid
	case apperror.KindConflict:
		return metrics.RegistrationConflict
	default:
		return metrics.RegistrationError
	}
}
