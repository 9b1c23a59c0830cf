package services

import (
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"gorm.io/gorm"
)

// DashboardService aggregates the treasury overview: monthly intake
// against target, the per-status pipeline breakdown and disbursement
// totals.
type DashboardService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, configSvc: NewSystemConfigService(db)}
}

type DashboardSummary struct {
	MonthlySPMCount    int64            `json:"monthly_spm_count"`
	MonthlySPMTarget   int              `json:"monthly_spm_target"`
	StatusBreakdown    map[string]int64 `json:"status_breakdown"`
	OverdueCount       int64            `json:"overdue_count"`
	SP2DBreakdown      map[string]int64 `json:"sp2d_breakdown"`
	DisbursedThisMonth int64            `json:"disbursed_this_month"` // rupiah
	EmergencyActive    bool             `json:"emergency_active"`
}

// Summary builds the dashboard for the current calendar month. When opdID
// is non-zero the SPM figures are scoped to that spending unit.
func (s *DashboardService) Summary(opdID uint) (*DashboardSummary, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	spmQuery := func() *gorm.DB {
		q := s.db.Model(&models.SPM{})
		if opdID != 0 {
			q = q.Where("opd_id = ?", opdID)
		}
		return q
	}

	summary := &DashboardSummary{
		MonthlySPMTarget: s.configSvc.GetInt("target_spm_bulanan", 50),
		StatusBreakdown:  make(map[string]int64),
		SP2DBreakdown:    make(map[string]int64),
		EmergencyActive:  NewEmergencyService(s.db).IsActive(),
	}

	if err := spmQuery().Where("submitted_at >= ?", monthStart).Count(&summary.MonthlySPMCount).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var spmCounts []statusCount
	if err := spmQuery().Select("status, COUNT(*) as count").Group("status").Scan(&spmCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range spmCounts {
		summary.StatusBreakdown[c.Status] = c.Count
	}

	if err := spmQuery().
		Where("due_date < ? AND status NOT IN ?", now,
			[]string{models.SPMStatusDraft, models.SPMStatusDisetujui, models.SPMStatusDitolak}).
		Count(&summary.OverdueCount).Error; err != nil {
		return nil, err
	}

	var sp2dCounts []statusCount
	if err := s.db.Model(&models.SP2D{}).Select("status, COUNT(*) as count").Group("status").Scan(&sp2dCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range sp2dCounts {
		summary.SP2DBreakdown[c.Status] = c.Count
	}

	var disbursed *int64
	if err := s.db.Model(&models.SP2D{}).
		Where("status = ? AND disbursed_at >= ?", models.SP2DStatusCair, monthStart).
		Select("SUM(amount)").Scan(&disbursed).Error; err != nil {
		return nil, err
	}
	if disbursed != nil {
		summary.DisbursedThisMonth = *disbursed
	}

	return summary, nil
}
