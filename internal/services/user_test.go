package services

import (
	"testing"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func TestUserCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	opd := createTestOPD(t, db)

	tests := []struct {
		name string
		req  CreateUserRequest
	}{
		{"missing username", CreateUserRequest{Role: models.RoleOPD, OPDID: &opd.ID, Password: "rahasia123"}},
		{"unknown role", CreateUserRequest{Username: "x", Role: "superuser", Password: "rahasia123"}},
		{"opd role without unit", CreateUserRequest{Username: "x", Role: models.RoleOPD, Password: "rahasia123"}},
		{"short password", CreateUserRequest{Username: "x", Role: models.RoleAkuntansi, Password: "short"}},
		{"bad auth type", CreateUserRequest{Username: "x", Role: models.RoleAkuntansi, Password: "rahasia123", AuthType: "oauth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(&tt.req); err == nil {
				t.Fatal("Create accepted invalid request")
			}
		})
	}
}

func TestUserCreateAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	opd := createTestOPD(t, db)

	req := &CreateUserRequest{
		Username: "bendahara01",
		Password: "rahasia123",
		FullName: "Siti Bendahara",
		Role:     models.RoleOPD,
		OPDID:    &opd.ID,
	}
	user, err := svc.Create(req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !user.IsActive {
		t.Fatal("new user not active")
	}
	if user.Password == "rahasia123" {
		t.Fatal("password stored in plaintext")
	}
	if user.AuthType != "local" {
		t.Fatalf("AuthType = %q, want local default", user.AuthType)
	}

	if _, err := svc.Create(req); err == nil {
		t.Fatal("duplicate username accepted")
	}
}

func TestUserCreateLDAPWithoutPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	// Directory accounts carry no local hash; password rules do not apply.
	user, err := svc.Create(&CreateUserRequest{
		Username: "pegawai.ldap",
		Role:     models.RoleAkuntansi,
		AuthType: "ldap",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.Password != "" {
		t.Fatal("directory account stored a local password hash")
	}
}

func TestUserUpdateAndDeactivate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := createTestUser(t, db, "pegawai", models.RoleAkuntansi, nil)

	badRole := "superuser"
	if _, err := svc.Update(user.ID, &UpdateUserRequest{Role: &badRole}); err == nil {
		t.Fatal("Update accepted an unknown role")
	}

	newName := "Pegawai Baru"
	newRole := models.RolePBMD
	updated, err := svc.Update(user.ID, &UpdateUserRequest{FullName: &newName, Role: &newRole})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.FullName != newName || updated.Role != newRole {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Deactivate(user.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	reloaded, _ := svc.Get(user.ID)
	if reloaded.IsActive {
		t.Fatal("user still active after Deactivate")
	}

	// Deactivation is soft: the row survives for the audit trail.
	var count int64
	db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Fatal("deactivation deleted the row")
	}
}

func TestUserResetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := createTestUser(t, db, "pegawai", models.RoleAkuntansi, nil)

	if err := svc.ResetPassword(user.ID, "short"); err == nil {
		t.Fatal("ResetPassword accepted a short password")
	}
	if err := svc.ResetPassword(user.ID, "rahasiabaru"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	ldapUser := createTestUser(t, db, "pegawai.ldap", models.RoleAkuntansi, nil)
	db.Model(ldapUser).Update("auth_type", "ldap")
	if err := svc.ResetPassword(ldapUser.ID, "rahasiabaru"); err == nil {
		t.Fatal("ResetPassword touched a directory account")
	}
}

func TestUserList(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	createTestUser(t, db, "akun1", models.RoleAkuntansi, nil)
	createTestUser(t, db, "akun2", models.RoleAkuntansi, nil)
	createTestUser(t, db, "resep1", models.RoleResepsionis, nil)

	resp, err := svc.List(&UserListRequest{Role: models.RoleAkuntansi})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}

	resp, err = svc.List(&UserListRequest{Search: "resep"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("search Total = %d, want 1", resp.Total)
	}
}
