package services

import (
	"testing"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/utils"
	"gorm.io/gorm"
)

func init() {
	utils.SetJWTSecret("test-secret-for-service-testing")
}

func createLocalUser(t *testing.T, db *gorm.DB, username, password, role string) *models.User {
	t.Helper()
	user := createTestUser(t, db, username, role, nil)
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Model(user).Update("password", hashed).Error; err != nil {
		t.Fatalf("failed to set password: %v", err)
	}
	user.Password = hashed
	return user
}

func TestLoginLocal(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)
	createLocalUser(t, db, "bendahara", "rahasia123", models.RolePerbendaharaan)

	resp, err := svc.Login(&LoginRequest{Username: "bendahara", Password: "rahasia123"}, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatal("missing tokens in login response")
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Role != models.RolePerbendaharaan {
		t.Fatalf("token Role = %q", claims.Role)
	}

	// The refresh token is stored hashed, never in plaintext.
	var stored models.RefreshToken
	if err := db.Where("user_id = ?", resp.User.ID).First(&stored).Error; err != nil {
		t.Fatalf("no refresh token row: %v", err)
	}
	if stored.TokenHash == resp.RefreshToken {
		t.Fatal("refresh token stored in plaintext")
	}
	if len(stored.TokenHash) != 64 {
		t.Fatalf("TokenHash length = %d, want 64 hex chars", len(stored.TokenHash))
	}
}

func TestLoginFailures(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)
	createLocalUser(t, db, "bendahara", "rahasia123", models.RolePerbendaharaan)
	inactive := createLocalUser(t, db, "nonaktif", "rahasia123", models.RoleOPD)
	db.Model(inactive).Update("is_active", false)

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"empty credentials", LoginRequest{}},
		{"unknown user", LoginRequest{Username: "siapa", Password: "rahasia123"}},
		{"wrong password", LoginRequest{Username: "bendahara", Password: "salah"}},
		{"inactive account", LoginRequest{Username: "nonaktif", Password: "rahasia123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(&tt.req, "", ""); err == nil {
				t.Fatal("Login succeeded")
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)
	createLocalUser(t, db, "bendahara", "rahasia123", models.RolePerbendaharaan)

	login, err := svc.Login(&LoginRequest{Username: "bendahara", Password: "rahasia123"}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.Refresh(login.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh did not rotate the token")
	}

	// The presented token is revoked and linked to its replacement.
	var old models.RefreshToken
	if err := db.Where("token_hash = ?", hashToken(login.RefreshToken)).First(&old).Error; err != nil {
		t.Fatalf("old token row missing: %v", err)
	}
	if old.RevokedAt == nil {
		t.Fatal("old token not revoked after rotation")
	}
	if old.ReplacedByTokenID == nil {
		t.Fatal("old token not linked to its replacement")
	}

	// Reusing the rotated-out token fails and leaves an audit trail.
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Fatal("Refresh accepted a revoked token")
	}
	var logCount int64
	db.Model(&models.SystemLog{}).Where("action = ?", "refresh_reuse").Count(&logCount)
	if logCount == 0 {
		t.Fatal("no audit row for refresh token reuse")
	}

	// The rotated-in token still works.
	if _, err := svc.Refresh(refreshed.RefreshToken, "", ""); err != nil {
		t.Fatalf("Refresh with the new token failed: %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)
	createLocalUser(t, db, "bendahara", "rahasia123", models.RolePerbendaharaan)

	login, err := svc.Login(&LoginRequest{Username: "bendahara", Password: "rahasia123"}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	svc.Logout(login.RefreshToken)
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Fatal("Refresh succeeded after logout")
	}
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)
	user := createLocalUser(t, db, "bendahara", "rahasia123", models.RolePerbendaharaan)

	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "rahasia123", NewPassword: "short"}); err == nil {
		t.Fatal("ChangePassword accepted a password under 8 characters")
	}
	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "salah", NewPassword: "rahasiabaru"}); err == nil {
		t.Fatal("ChangePassword accepted a wrong old password")
	}

	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "rahasia123", NewPassword: "rahasiabaru"}); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Username: "bendahara", Password: "rahasiabaru"}, "", ""); err != nil {
		t.Fatalf("Login with the new password failed: %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Username: "bendahara", Password: "rahasia123"}, "", ""); err == nil {
		t.Fatal("Login with the old password still works")
	}
}

func TestCreateAdminIfNotExists(t *testing.T) {
	db := newTestDB(t)

	if err := CreateAdminIfNotExists(db); err != nil {
		t.Fatalf("CreateAdminIfNotExists failed: %v", err)
	}
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdministrator).Count(&count)
	if count != 1 {
		t.Fatalf("administrators = %d, want 1", count)
	}

	// A second call never duplicates the account.
	if err := CreateAdminIfNotExists(db); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	db.Model(&models.User{}).Where("role = ?", models.RoleAdministrator).Count(&count)
	if count != 1 {
		t.Fatalf("administrators after second call = %d, want 1", count)
	}
}
