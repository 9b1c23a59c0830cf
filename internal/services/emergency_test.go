package services

import (
	"testing"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func TestEmergencyToggleRequiresAdministrator(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	user := createTestUser(t, db, "bendahara", models.RolePerbendaharaan, nil)

	if _, err := svc.Toggle(user.ID, true, "bencana alam di wilayah kerja"); err == nil {
		t.Fatal("non-administrator toggled emergency mode")
	}
	if svc.IsActive() {
		t.Fatal("emergency mode active after rejected toggle")
	}
}

func TestEmergencyToggleRejectsDemoAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	admin := createTestUser(t, db, "demo_admin", models.RoleAdministrator, nil)
	db.Model(admin).Update("is_demo", true)

	if _, err := svc.Toggle(admin.ID, true, "bencana alam di wilayah kerja"); err == nil {
		t.Fatal("demo administrator toggled emergency mode")
	}
}

func TestEmergencyToggleRequiresReason(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	admin := createTestUser(t, db, "admin", models.RoleAdministrator, nil)

	if _, err := svc.Toggle(admin.ID, true, "singkat"); err == nil {
		t.Fatal("activation accepted a reason shorter than 10 characters")
	}

	// Reason validation runs before any state change.
	cfgSvc := NewSystemConfigService(db)
	if cfgSvc.GetBool("emergency_mode_enabled", false) {
		t.Fatal("emergency flag set after rejected activation")
	}
	if v := cfgSvc.GetWithDefault("emergency_mode_activated_at", ""); v != "" {
		t.Fatalf("activation timestamp written after rejected activation: %q", v)
	}
}

func TestEmergencyToggleActivateAndDeactivate(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	admin := createTestUser(t, db, "admin", models.RoleAdministrator, nil)

	status, err := svc.Toggle(admin.ID, true, "banjir besar memutus akses kantor")
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if !status.Enabled {
		t.Fatal("status not enabled after activation")
	}
	if status.ActivatedBy != "admin" {
		t.Fatalf("ActivatedBy = %q, want admin", status.ActivatedBy)
	}
	if status.ExpiresAt == nil {
		t.Fatal("no expiry on active emergency mode")
	}

	// Double activation conflicts.
	if _, err := svc.Toggle(admin.ID, true, "banjir besar memutus akses kantor"); err == nil {
		t.Fatal("second activation accepted while already active")
	}

	// Toggle writes an emergency-tagged audit row.
	var logCount int64
	db.Model(&models.SystemLog{}).Where("is_emergency = ?", true).Count(&logCount)
	if logCount == 0 {
		t.Fatal("no emergency-tagged audit row after activation")
	}

	status, err = svc.Toggle(admin.ID, false, "")
	if err != nil {
		t.Fatalf("deactivation failed: %v", err)
	}
	if status.Enabled {
		t.Fatal("status still enabled after deactivation")
	}

	// Deactivation clears all activation metadata.
	cfgSvc := NewSystemConfigService(db)
	for _, key := range []string{"emergency_mode_activated_at", "emergency_mode_activated_by", "emergency_mode_reason"} {
		if v := cfgSvc.GetWithDefault(key, ""); v != "" {
			t.Fatalf("%s = %q after deactivation, want empty", key, v)
		}
	}
}

func TestEmergencyReadsInactivePastMaxDuration(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	cfgSvc := NewSystemConfigService(db)

	cfgSvc.Set("emergency_mode_enabled", "true")
	cfgSvc.Set("emergency_mode_activated_at", time.Now().Add(-25*time.Hour).Format(time.RFC3339))

	// The stored flag is still true, but reads must treat the mode as over.
	if svc.IsActive() {
		t.Fatal("emergency mode read as active past the 24h cap")
	}
}

func TestEmergencyExpireIfOverdue(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmergencyService(db)
	cfgSvc := NewSystemConfigService(db)

	cfgSvc.Set("emergency_mode_enabled", "true")
	cfgSvc.Set("emergency_mode_activated_at", time.Now().Add(-25*time.Hour).Format(time.RFC3339))

	if err := svc.ExpireIfOverdue(); err != nil {
		t.Fatalf("ExpireIfOverdue failed: %v", err)
	}
	if cfgSvc.GetBool("emergency_mode_enabled", true) {
		t.Fatal("flag still set after expiry sweep")
	}

	// A fresh activation is left alone.
	cfgSvc.Set("emergency_mode_enabled", "true")
	cfgSvc.Set("emergency_mode_activated_at", time.Now().Add(-time.Hour).Format(time.RFC3339))
	if err := svc.ExpireIfOverdue(); err != nil {
		t.Fatalf("ExpireIfOverdue failed on fresh activation: %v", err)
	}
	if !cfgSvc.GetBool("emergency_mode_enabled", false) {
		t.Fatal("expiry sweep deactivated a fresh activation")
	}
}
