package services

import (
	"testing"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func TestSystemLogListFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)
	userID := uint(1)

	LogInfo("spm", "create", "SPM dibuat", &userID, "127.0.0.1", "test", nil)
	LogWarning("auth", "login_failed", "Login gagal", nil, "", "", nil)
	LogEmergency("emergency", "toggle", "Mode darurat diaktifkan", &userID, "", "", nil)

	resp, err := svc.List(&SystemLogListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("Total = %d, want 3", resp.Total)
	}

	resp, _ = svc.List(&SystemLogListRequest{Module: "auth"})
	if resp.Total != 1 || resp.Items[0].Action != "login_failed" {
		t.Fatalf("module filter: %+v", resp)
	}

	resp, _ = svc.List(&SystemLogListRequest{Level: "warning"})
	if resp.Total != 2 {
		t.Fatalf("level filter Total = %d, want 2", resp.Total)
	}

	emergency := true
	resp, _ = svc.List(&SystemLogListRequest{IsEmergency: &emergency})
	if resp.Total != 1 || resp.Items[0].Module != "emergency" {
		t.Fatalf("emergency filter: %+v", resp)
	}

	resp, _ = svc.List(&SystemLogListRequest{Search: "darurat"})
	if resp.Total != 1 {
		t.Fatalf("search Total = %d, want 1", resp.Total)
	}
}

func TestSystemLogGetModules(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	LogInfo("spm", "create", "m", nil, "", "", nil)
	LogInfo("spm", "submit", "m", nil, "", "", nil)
	LogInfo("sp2d", "issue", "m", nil, "", "", nil)

	modules, err := svc.GetModules()
	if err != nil {
		t.Fatalf("GetModules failed: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("modules = %v, want 2 distinct", modules)
	}
}

func TestSystemLogCleanup(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	LogInfo("spm", "create", "recent", nil, "", "", nil)
	old := models.SystemLog{
		Level:     "info",
		Module:    "spm",
		Action:    "create",
		Message:   "old",
		CreatedAt: time.Now().AddDate(0, 0, -120),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("failed to insert old log: %v", err)
	}

	deleted, err := svc.CleanupOldLogs(90)
	if err != nil {
		t.Fatalf("CleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	// Zero retention disables cleanup entirely.
	deleted, err = svc.CleanupOldLogs(0)
	if err != nil {
		t.Fatalf("CleanupOldLogs(0) failed: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d with retention disabled, want 0", deleted)
	}

	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	if count != 1 {
		t.Fatalf("remaining logs = %d, want 1", count)
	}
}

func TestSystemLogRetentionConfig(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	if got := svc.GetRetentionDays(); got != 90 {
		t.Fatalf("GetRetentionDays = %d, want the 90 default", got)
	}
	if err := svc.SetRetentionDays(30); err != nil {
		t.Fatalf("SetRetentionDays failed: %v", err)
	}
	if got := svc.GetRetentionDays(); got != 30 {
		t.Fatalf("GetRetentionDays = %d, want 30", got)
	}
}
