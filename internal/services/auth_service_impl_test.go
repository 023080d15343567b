package services

import (
	"testing"

	"github.com/apexcapital/loadstar-pipeline/internal/auth"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	m := newMockRepos()
	svc := newAuthService(m.repos, testConfig())

	user, err := svc.Register(&RegisterRequest{
		Email:    "dispatch@apexcapital.com",
		Password: "correct-horse-battery",
		Name:     "Dana Dispatcher",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != string(models.RoleDispatcher) {
		t.Errorf("Expected default role dispatcher, got %s", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("Register response must not carry the password hash")
	}

	stored, err := m.user.GetByEmail("dispatch@apexcapital.com")
	if err != nil {
		t.Fatalf("Stored user not found: %v", err)
	}
	if !auth.CheckPassword("correct-horse-battery", stored.PasswordHash) {
		t.Error("Stored hash does not verify the original password")
	}

	resp, err := svc.Login("dispatch@apexcapital.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Error("Expected both tokens on login")
	}
	if resp.ExpiresAt.IsZero() {
		t.Error("Expected a token expiry")
	}

	validated, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if validated.ID != user.ID || validated.Email != user.Email || validated.Role != user.Role {
		t.Errorf("Validated user does not match registered user: %+v vs %+v", validated, user)
	}

	if _, err := svc.Login("dispatch@apexcapital.com", "wrong-password"); err == nil {
		t.Error("Expected login to fail with the wrong password")
	}
	if _, err := svc.Login("nobody@apexcapital.com", "correct-horse-battery"); err == nil {
		t.Error("Expected login to fail for an unknown email")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	m := newMockRepos()
	svc := newAuthService(m.repos, testConfig())

	if _, err := svc.Register(&RegisterRequest{
		Email: "ops@apexcapital.com", Password: "long-enough-pass", Name: "Olga Ops", Role: "superuser",
	}); err == nil {
		t.Error("Expected an unknown role to be rejected")
	}

	if _, err := svc.Register(&RegisterRequest{
		Email: "ops@apexcapital.com", Password: "short", Name: "Olga Ops",
	}); err == nil {
		t.Error("Expected a short password to be rejected")
	}

	admin, err := svc.Register(&RegisterRequest{
		Email: "admin@apexcapital.com", Password: "long-enough-pass", Name: "Ada Admin", Role: string(models.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("Register admin failed: %v", err)
	}
	if admin.Role != string(models.RoleAdmin) {
		t.Errorf("Expected admin role, got %s", admin.Role)
	}

	if _, err := svc.Register(&RegisterRequest{
		Email: "admin@apexcapital.com", Password: "another-password", Name: "Duplicate",
	}); err == nil {
		t.Error("Expected a duplicate email to be rejected")
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	m := newMockRepos()
	svc := newAuthService(m.repos, testConfig())

	if _, err := svc.Register(&RegisterRequest{
		Email: "dispatch@apexcapital.com", Password: "correct-horse-battery", Name: "Dana Dispatcher",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := svc.Login("dispatch@apexcapital.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if refreshed.Token == "" {
		t.Error("Expected a new token from refresh")
	}
	if _, err := svc.ValidateToken(refreshed.Token); err != nil {
		t.Errorf("Refreshed token does not validate: %v", err)
	}

	if _, err := svc.RefreshToken("garbage"); err == nil {
		t.Error("Expected refresh to reject a malformed token")
	}
}

func TestAuthService_ValidateToken_DeletedUser(t *testing.T) {
	m := newMockRepos()
	svc := newAuthService(m.repos, testConfig())

	user, err := svc.Register(&RegisterRequest{
		Email: "gone@apexcapital.com", Password: "correct-horse-battery", Name: "Gene Gone",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := svc.Login("gone@apexcapital.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := m.user.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.ValidateToken(resp.Token); err == nil {
		t.Error("Expected validation to fail once the account is gone")
	}
}
