package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/database/dbtest"
	"hospital-management-backend/internal/metrics"
	"hospital-management-backend/internal/models"
	"hospital-management-backend/internal/repository"
	"hospital-management-backend/pkg/utils"
)

const testRegisterSecret = "bootstrap-secret"

// countingHasher is a cheap bcrypt hasher that counts how often it runs.
type countingHasher struct {
	inner    *utils.BcryptHasher
	hashes   atomic.Int32
	compares atomic.Int32
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: utils.NewBcryptHasher(bcrypt.MinCost)}
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes.Add(1)
	return h.inner.Hash(password)
}

func (h *countingHasher) Compare(hashedPassword, password string) bool {
	h.compares.Add(1)
	return h.inner.Compare(hashedPassword, password)
}

type testEnv struct {
	db      *gorm.DB
	hasher  *countingHasher
	tokens  *utils.TokenManager
	metrics *metrics.Metrics
	audit   *repository.AuditRepository
	auth    *AuthService
	users   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	env := &testEnv{
		db:      db,
		hasher:  newCountingHasher(),
		tokens:  utils.NewTokenManager("test-secret", time.Hour, nil),
		metrics: metrics.New(prometheus.NewRegistry()),
		audit:   repository.NewAuditRepo(db),
	}

	userRepo := repository.NewUserRepo(db)
	env.auth = NewAuthService(AuthDeps{
		DB:             db,
		Hospitals:      repository.NewHospitalRepo(db),
		Users:          userRepo,
		Audit:          env.audit,
		Hasher:         env.hasher,
		Tokens:         env.tokens,
		Metrics:        env.metrics,
		Logger:         zap.NewNop(),
		RegisterSecret: testRegisterSecret,
	})
	env.users = NewUserService(userRepo, env.hasher, env.metrics, zap.NewNop())
	return env
}

func ptr[T any](v T) *T {
	return &v
}

func registerInput(hospitalID, email string) RegisterHospitalInput {
	return RegisterHospitalInput{
		RegisterSecret: testRegisterSecret,
		HospitalID:     hospitalID,
		Name:           "General Hospital",
		Email:          email,
		AdminUsername:  "admin",
		AdminPassword:  ptr("admin-pass"),
	}
}

// register creates a hospital and returns its admin as a principal.
func (e *testEnv) register(t *testing.T, hospitalID, email string) *Principal {
	t.Helper()
	res, err := e.auth.RegisterHospital(context.Background(), registerInput(hospitalID, email))
	if err != nil {
		t.Fatalf("RegisterHospital(%q) error = %v", hospitalID, err)
	}
	return &Principal{User: res.Admin, HospitalCode: res.HospitalID}
}

func (e *testEnv) auditRows(t *testing.T, action models.AuditAction) []models.AuditLog {
	t.Helper()
	rows, err := e.audit.ListByAction(context.Background(), action)
	if err != nil {
		t.Fatalf("ListByAction(%s) error = %v", action, err)
	}
	return rows
}

func assertKind(t *testing.T, err error, want apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperror.KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, want, err)
	}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	if got := apperror.PublicMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%q does not contain %q", s, substr)
	}
}

var errInjected = errors.New("injected failure")
