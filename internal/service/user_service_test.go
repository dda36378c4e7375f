package service

import (
	"context"
	"strings"
	"testing"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/models"
	"hospital-management-backend/pkg/utils"
)

func createUser(t *testing.T, env *testEnv, p *Principal, username string, role models.Role) *models.User {
	t.Helper()
	u, err := env.users.Create(context.Background(), p, CreateUserInput{
		Username: username,
		Password: ptr("secret-pass"),
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", username, err)
	}
	return u
}

func TestUserService_Create(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "h1", "h1@example.com")

	u, err := env.users.Create(context.Background(), admin, CreateUserInput{
		Username: "  Dr.Smith ",
		Email:    ptr(" Smith@H1.example "),
		Password: ptr("secret-pass"),
		Role:     "doctor",
		FullName: ptr("John Smith"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if u.Username != "dr.smith" {
		t.Errorf("Username = %q, want dr.smith", u.Username)
	}
	if u.Email == nil || *u.Email != "smith@h1.example" {
		t.Errorf("Email = %v", u.Email)
	}
	if u.HospitalID != admin.HospitalID() || u.Role != models.RoleDoctor {
		t.Errorf("user = %+v", u)
	}
	if u.Status == nil || !*u.Status {
		t.Error("new users should be active")
	}
}

func TestUserService_CreateRejectsDuplicateUsernameInAnyCase(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "h1", "h1@example.com")
	createUser(t, env, admin, "Dr.Smith", models.RoleDoctor)

	_, err := env.users.Create(context.Background(), admin, CreateUserInput{
		Username: "dr.smith",
		Password: ptr("secret-pass"),
		Role:     "staff",
	})
	assertKind(t, err, apperror.KindConflict)

	other := env.register(t, "h2", "h2@example.com")
	if _, err := env.users.Create(context.Background(), other, CreateUserInput{
		Username: "DR.SMITH",
		Password: ptr("secret-pass"),
		Role:     "staff",
	}); err != nil {
		t.Errorf("same username in another hospital error = %v", err)
	}
}

func TestUserService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateUserInput
		message string
	}{
		{
			name:    "unknown role",
			in:      CreateUserInput{Username: "nurse", Password: ptr("pw"), Role: "nurse"},
			message: "Invalid role",
		},
		{
			name:    "role is case sensitive",
			in:      CreateUserInput{Username: "boss", Password: ptr("pw"), Role: "Admin"},
			message: "Invalid role",
		},
		{
			name:    "password not a string",
			in:      CreateUserInput{Username: "nurse", Role: "staff"},
			message: "Invalid password type. Ensure 'password' is included as a string.",
		},
		{
			name:    "password too long",
			in:      CreateUserInput{Username: "nurse", Password: ptr(strings.Repeat("x", utils.MaxPasswordBytes+1)), Role: "staff"},
			message: "Password too long. Maximum length is 72 bytes.",
		},
		{
			name: "blank username",
			in:   CreateUserInput{Username: "  ", Password: ptr("pw"), Role: "staff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			admin := env.register(t, "h1", "h1@example.com")
			hashesBefore := env.hasher.hashes.Load()

			_, err := env.users.Create(context.Background(), admin, tt.in)
			assertKind(t, err, apperror.KindBadRequest)
			if tt.message != "" {
				assertMessage(t, err, tt.message)
			}
			if n := env.hasher.hashes.Load() - hashesBefore; n != 0 {
				t.Errorf("hasher ran %d times, want 0", n)
			}
		})
	}
}

func TestUserService_ListIsScopedToHospital(t *testing.T) {
	env := newTestEnv(t)
	h1 := env.register(t, "h1", "h1@example.com")
	h2 := env.register(t, "h2", "h2@example.com")
	createUser(t, env, h1, "alice", models.RoleStaff)
	createUser(t, env, h2, "bob", models.RoleStaff)

	users, err := env.users.List(context.Background(), h1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0].Username != "admin" || users[1].Username != "alice" {
		t.Fatalf("List() = %+v, want admin and alice", users)
	}
	for _, u := range users {
		if u.HospitalID != h1.HospitalID() {
			t.Errorf("user %q belongs to hospital %d", u.Username, u.HospitalID)
		}
	}
}

func TestUserService_ToggleStatusTwiceRestores(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "h1", "h1@example.com")
	target := createUser(t, env, admin, "alice", models.RoleStaff)

	off, err := env.users.ToggleStatus(context.Background(), admin, target.ID)
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if !off.Disabled() {
		t.Error("first toggle should disable the user")
	}

	on, err := env.users.ToggleStatus(context.Background(), admin, target.ID)
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if on.Disabled() || on.Status == nil || !*on.Status {
		t.Errorf("second toggle should restore status, got %v", on.Status)
	}
}

func TestUserService_ToggleStatusAcrossHospitalsIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	h1 := env.register(t, "h1", "h1@example.com")
	h2 := env.register(t, "h2", "h2@example.com")
	foreign := createUser(t, env, h2, "bob", models.RoleStaff)

	_, err := env.users.ToggleStatus(context.Background(), h1, foreign.ID)
	assertKind(t, err, apperror.KindNotFound)
	assertMessage(t, err, "User not found")

	var stored models.User
	if err := env.db.First(&stored, foreign.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Disabled() {
		t.Error("user of another hospital must not be modified")
	}

	_, err = env.users.ToggleStatus(context.Background(), h1, 9999)
	assertKind(t, err, apperror.KindNotFound)
}

func TestUserService_ResolvePrincipal(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "h1", "h1@example.com")
	staff := createUser(t, env, admin, "alice", models.RoleStaff)
	ctx := context.Background()

	p, err := env.users.ResolvePrincipal(ctx, &utils.Claims{UserID: staff.ID, Role: "admin", HospitalID: "h1"})
	if err != nil {
		t.Fatalf("ResolvePrincipal() error = %v", err)
	}
	if p.IsAdmin() {
		t.Error("role must come from the stored user, not the token")
	}
	if p.HospitalCode != "h1" || p.HospitalID() != admin.HospitalID() {
		t.Errorf("principal = %+v", p)
	}
	if got := env.users.Me(p); got.ID != staff.ID {
		t.Errorf("Me() = user %d, want %d", got.ID, staff.ID)
	}

	if _, err := env.users.ToggleStatus(ctx, admin, staff.ID); err != nil {
		t.Fatal(err)
	}
	_, err = env.users.ResolvePrincipal(ctx, &utils.Claims{UserID: staff.ID})
	assertKind(t, err, apperror.KindUnauthenticated)
	assertContains(t, apperror.PublicMessage(err), "disabled")

	_, err = env.users.ResolvePrincipal(ctx, &utils.Claims{UserID: 9999})
	assertKind(t, err, apperror.KindUnauthenticated)
}

func TestUserService_DisabledUserCannotLogIn(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "h1", "h1@example.com")
	staff := createUser(t, env, admin, "alice", models.RoleStaff)

	if _, err := env.users.ToggleStatus(context.Background(), admin, staff.ID); err != nil {
		t.Fatal(err)
	}

	_, err := env.auth.Login(context.Background(), LoginInput{HospitalID: "h1", Username: "alice", Password: ptr("secret-pass")})
	assertKind(t, err, apperror.KindInvalidCredentials)
}
