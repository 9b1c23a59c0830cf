package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// archiveBatchSize caps how many rows one sweep pass copies per table.
const archiveBatchSize = 100

// ArchiveService copies settled documents into the archive tables once
// they have been final for longer than the configured threshold. The sweep
// is idempotent: a document that already has an archive row is skipped, so
// re-running after a partial failure picks up where it left off.
type ArchiveService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
}

func NewArchiveService(db *gorm.DB) *ArchiveService {
	return &ArchiveService{db: db, configSvc: NewSystemConfigService(db)}
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	SPMArchived  int `json:"spm_archived"`
	SP2DArchived int `json:"sp2d_archived"`
	Errors       int `json:"errors"`
}

// Sweep archives approved SPMs and disbursed SP2Ds whose final timestamp
// is older than the auto_archive_days threshold. Each document is copied
// inside its own transaction; one bad row never blocks the rest.
func (s *ArchiveService) Sweep() (*SweepResult, error) {
	// A zero threshold archives settled documents immediately; a negative
	// value disables the sweep.
	days := s.configSvc.GetInt("auto_archive_days", 30)
	if days < 0 {
		return &SweepResult{}, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := &SweepResult{}

	var spms []models.SPM
	err := s.db.Preload("OPD").
		Where("status = ? AND approved_at < ?", models.SPMStatusDisetujui, cutoff).
		Where("id NOT IN (?)", s.db.Model(&models.SPMArchive{}).Select("spm_id")).
		Limit(archiveBatchSize).
		Find(&spms).Error
	if err != nil {
		return nil, err
	}

	for i := range spms {
		if err := s.archiveSPM(&spms[i]); err != nil {
			logger.Warnf("[Archive] Failed to archive SPM %s: %v", spms[i].Number, err)
			result.Errors++
			continue
		}
		result.SPMArchived++
	}

	var sp2ds []models.SP2D
	err = s.db.Preload("SPM").
		Where("status = ? AND disbursed_at < ?", models.SP2DStatusCair, cutoff).
		Where("id NOT IN (?)", s.db.Model(&models.SP2DArchive{}).Select("sp2d_id")).
		Limit(archiveBatchSize).
		Find(&sp2ds).Error
	if err != nil {
		return nil, err
	}

	for i := range sp2ds {
		if err := s.archiveSP2D(&sp2ds[i]); err != nil {
			logger.Warnf("[Archive] Failed to archive SP2D %s: %v", sp2ds[i].Number, err)
			result.Errors++
			continue
		}
		result.SP2DArchived++
	}

	if result.SPMArchived > 0 || result.SP2DArchived > 0 {
		msg := fmt.Sprintf("Arsip otomatis: %d SPM, %d SP2D", result.SPMArchived, result.SP2DArchived)
		LogInfo("archive", "sweep", msg, nil, "", "", result)
	}

	return result, nil
}

func (s *ArchiveService) archiveSPM(spm *models.SPM) error {
	snapshot, err := json.Marshal(spm)
	if err != nil {
		return err
	}

	opdName := ""
	if spm.OPD != nil {
		opdName = spm.OPD.Name
	}

	row := models.SPMArchive{
		ID:         uuid.NewString(),
		SPMID:      spm.ID,
		Number:     spm.Number,
		OPDName:    opdName,
		Recipient:  spm.Recipient,
		NetAmount:  spm.NetAmount,
		Status:     spm.Status,
		ApprovedAt: spm.ApprovedAt,
		Snapshot:   string(snapshot),
		ArchivedAt: time.Now(),
	}
	return s.db.Create(&row).Error
}

func (s *ArchiveService) archiveSP2D(sp2d *models.SP2D) error {
	snapshot, err := json.Marshal(sp2d)
	if err != nil {
		return err
	}

	spmNumber := ""
	if sp2d.SPM != nil {
		spmNumber = sp2d.SPM.Number
	}

	row := models.SP2DArchive{
		ID:          uuid.NewString(),
		SP2DID:      sp2d.ID,
		Number:      sp2d.Number,
		SPMNumber:   spmNumber,
		Amount:      sp2d.Amount,
		Status:      sp2d.Status,
		DisbursedAt: sp2d.DisbursedAt,
		Snapshot:    string(snapshot),
		ArchivedAt:  time.Now(),
	}
	return s.db.Create(&row).Error
}

type ArchiveListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Type     string `form:"type"` // spm (default), sp2d
	Search   string `form:"search"`
}

type ArchiveListResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// List returns a page of archive rows of the requested document type.
func (s *ArchiveService) List(req *ArchiveListRequest) (*ArchiveListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}
	offset := (req.Page - 1) * req.PageSize

	var total int64
	if req.Type == "sp2d" {
		query := s.db.Model(&models.SP2DArchive{})
		if req.Search != "" {
			query = query.Where("number LIKE ? OR spm_number LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
		}
		query.Count(&total)

		var items []models.SP2DArchive
		if err := query.Offset(offset).Limit(req.PageSize).Order("archived_at DESC").Find(&items).Error; err != nil {
			return nil, err
		}
		return &ArchiveListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
	}

	query := s.db.Model(&models.SPMArchive{})
	if req.Search != "" {
		query = query.Where("number LIKE ? OR recipient LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}
	query.Count(&total)

	var items []models.SPMArchive
	if err := query.Offset(offset).Limit(req.PageSize).Order("archived_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return &ArchiveListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}
