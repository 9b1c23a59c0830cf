package services

import (
	"testing"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
)

func TestDashboardSummary(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewDashboardService(f.db)
	wf := NewWorkflowService(f.db)

	// One submitted document plus one draft this month.
	submitted := createDraftSPM(t, f, wf)
	if _, err := wf.Submit(f.submitter.ID, submitted.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	createDraftSPM(t, f, wf)

	summary, err := svc.Summary(0)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.MonthlySPMCount != 1 {
		t.Fatalf("MonthlySPMCount = %d, want 1 (drafts do not count)", summary.MonthlySPMCount)
	}
	if summary.MonthlySPMTarget != 50 {
		t.Fatalf("MonthlySPMTarget = %d, want the seeded 50", summary.MonthlySPMTarget)
	}
	if summary.StatusBreakdown[models.SPMStatusDraft] != 1 {
		t.Fatalf("draft breakdown = %d, want 1", summary.StatusBreakdown[models.SPMStatusDraft])
	}
	if summary.StatusBreakdown[models.SPMStatusDiajukan] != 1 {
		t.Fatalf("diajukan breakdown = %d, want 1", summary.StatusBreakdown[models.SPMStatusDiajukan])
	}
	if summary.EmergencyActive {
		t.Fatal("EmergencyActive = true with no activation")
	}
}

func TestDashboardSummaryScopedToOPD(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewDashboardService(f.db)
	wf := NewWorkflowService(f.db)

	spm := createDraftSPM(t, f, wf)
	if _, err := wf.Submit(f.submitter.ID, spm.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	scoped, err := svc.Summary(f.opd.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if scoped.MonthlySPMCount != 1 {
		t.Fatalf("scoped MonthlySPMCount = %d, want 1", scoped.MonthlySPMCount)
	}

	foreign, err := svc.Summary(f.opd.ID + 100)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if foreign.MonthlySPMCount != 0 {
		t.Fatalf("foreign MonthlySPMCount = %d, want 0", foreign.MonthlySPMCount)
	}
}
