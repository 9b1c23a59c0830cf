package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func backdateApproval(t *testing.T, f *workflowFixture, spm *models.SPM, days int) {
	t.Helper()
	err := f.db.Model(&models.SPM{}).Where("id = ?", spm.ID).
		Update("approved_at", time.Now().AddDate(0, 0, -days)).Error
	if err != nil {
		t.Fatalf("failed to backdate approval: %v", err)
	}
}

func TestArchiveSweepRespectsThreshold(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)

	old := approvedSPM(t, f)
	backdateApproval(t, f, old, 45)
	fresh := approvedSPM(t, f)
	backdateApproval(t, f, fresh, 3)

	result, err := svc.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.SPMArchived != 1 {
		t.Fatalf("SPMArchived = %d, want 1", result.SPMArchived)
	}

	var rows []models.SPMArchive
	if err := f.db.Find(&rows).Error; err != nil {
		t.Fatalf("failed to read archive rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("archive rows = %d, want 1", len(rows))
	}
	if rows[0].SPMID != old.ID {
		t.Fatalf("archived SPMID = %d, want %d", rows[0].SPMID, old.ID)
	}
	if rows[0].Number != old.Number {
		t.Fatalf("archived Number = %q, want %q", rows[0].Number, old.Number)
	}

	// The snapshot holds the full document as JSON.
	var snap models.SPM
	if err := json.Unmarshal([]byte(rows[0].Snapshot), &snap); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if snap.NetAmount != old.NetAmount {
		t.Fatalf("snapshot NetAmount = %d, want %d", snap.NetAmount, old.NetAmount)
	}
}

func TestArchiveSweepIdempotent(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)

	spm := approvedSPM(t, f)
	backdateApproval(t, f, spm, 60)

	if _, err := svc.Sweep(); err != nil {
		t.Fatalf("first Sweep failed: %v", err)
	}
	second, err := svc.Sweep()
	if err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}
	if second.SPMArchived != 0 {
		t.Fatalf("second sweep archived %d documents, want 0", second.SPMArchived)
	}

	var count int64
	f.db.Model(&models.SPMArchive{}).Where("spm_id = ?", spm.ID).Count(&count)
	if count != 1 {
		t.Fatalf("archive rows for one SPM = %d, want 1", count)
	}
}

func TestArchiveSweepCoversSP2D(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)
	sp2dSvc := NewSP2DService(f.db)
	treasurer := f.actors[models.RolePerbendaharaan]

	spm := approvedSPM(t, f)
	sp2d, err := sp2dSvc.Issue(treasurer.ID, &IssueSP2DRequest{
		SPMID: spm.ID, BankName: "Bank Jateng", BankAccount: "1234567890",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Fast-forward the order to cair, long past the threshold.
	past := time.Now().AddDate(0, 0, -40)
	err = f.db.Model(&models.SP2D{}).Where("id = ?", sp2d.ID).
		Updates(map[string]interface{}{
			"status":       models.SP2DStatusCair,
			"disbursed_at": past,
		}).Error
	if err != nil {
		t.Fatalf("failed to fast-forward SP2D: %v", err)
	}
	backdateApproval(t, f, spm, 40)

	result, err := svc.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.SP2DArchived != 1 {
		t.Fatalf("SP2DArchived = %d, want 1", result.SP2DArchived)
	}

	var row models.SP2DArchive
	if err := f.db.Where("sp2d_id = ?", sp2d.ID).First(&row).Error; err != nil {
		t.Fatalf("no archive row for the disbursed SP2D: %v", err)
	}
	if row.SPMNumber != spm.Number {
		t.Fatalf("SPMNumber = %q, want %q", row.SPMNumber, spm.Number)
	}
}

func TestArchiveSweepZeroThresholdArchivesImmediately(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)
	NewSystemConfigService(f.db).Set("auto_archive_days", "0")

	spm := approvedSPM(t, f)
	backdateApproval(t, f, spm, 1)

	result, err := svc.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.SPMArchived != 1 {
		t.Fatalf("SPMArchived = %d with zero threshold, want 1", result.SPMArchived)
	}
}

func TestArchiveSweepNegativeThresholdDisables(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)
	NewSystemConfigService(f.db).Set("auto_archive_days", "-1")

	spm := approvedSPM(t, f)
	backdateApproval(t, f, spm, 100)

	result, err := svc.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.SPMArchived != 0 {
		t.Fatal("sweep ran despite being disabled")
	}
}

func TestArchiveList(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewArchiveService(f.db)

	spm := approvedSPM(t, f)
	backdateApproval(t, f, spm, 50)
	if _, err := svc.Sweep(); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	resp, err := svc.List(&ArchiveListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want 1", resp.Total)
	}

	items, ok := resp.Items.([]models.SPMArchive)
	if !ok {
		t.Fatalf("Items type = %T, want []models.SPMArchive", resp.Items)
	}
	if items[0].Recipient != spm.Recipient {
		t.Fatalf("Recipient = %q, want %q", items[0].Recipient, spm.Recipient)
	}
}
