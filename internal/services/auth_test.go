package services

import (
	"testing"
	"time"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/internal/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")

	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "test-secret", ExpireHour: 1},
		LDAP: config.LDAPConfig{Enabled: false},
	}
	return NewAuthService(newTestDB(t), cfg)
}

func TestCreateAdminIfNotExists(t *testing.T) {
	svc := newTestAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists failed: %v", err)
	}

	// Second call must not create a duplicate
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("repeat CreateAdminIfNotExists failed: %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 admin, got %d", count)
	}
}

func TestLogin_Local(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	result, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.AccessToken == "" {
		t.Error("expected an access token")
	}
	if result.RefreshToken == "" {
		t.Error("expected a refresh token")
	}
	if result.User.Username != "admin" {
		t.Errorf("User.Username = %q, expected admin", result.User.Username)
	}

	claims, err := utils.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("token role = %q, expected admin", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := svc.Login(&LoginRequest{Username: "ghost", Password: "admin"}); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	login, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.Refresh(login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	// The consumed token is revoked and cannot be replayed
	if _, err := svc.Refresh(login.RefreshToken); err == nil {
		t.Error("expected error when reusing a rotated refresh token")
	}
}

func TestRefresh_Expired(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	login, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	svc.db.Model(&models.RefreshToken{}).
		Where("1 = 1").
		Update("expires_at", time.Now().Add(-time.Hour))

	if _, err := svc.Refresh(login.RefreshToken); err == nil {
		t.Error("expected error for expired refresh token")
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	login, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.RevokeRefreshToken(login.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken failed: %v", err)
	}
	if _, err := svc.Refresh(login.RefreshToken); err == nil {
		t.Error("expected error after revocation")
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}

	var admin models.User
	svc.db.Where("username = ?", "admin").First(&admin)

	err := svc.ChangePassword(admin.ID, &ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "new-password",
	})
	if err == nil {
		t.Error("expected error for wrong old password")
	}

	err = svc.ChangePassword(admin.ID, &ChangePasswordRequest{
		OldPassword: "admin", NewPassword: "new-password",
	})
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Username: "admin", Password: "new-password"}); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}
