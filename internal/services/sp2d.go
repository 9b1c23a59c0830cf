package services

import (
	"fmt"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// SP2DService drives the disbursement order lifecycle: issuance from an
// approved SPM, OTP-gated verification, and the forward bank progression
// to final disbursement. Status writes use the same conditional
// (status, version) guard as the SPM chain.
type SP2DService struct {
	db           *gorm.DB
	otpSvc       *OTPService
	emergencySvc *EmergencyService
	notifSvc     *NotificationService
}

func NewSP2DService(db *gorm.DB) *SP2DService {
	return &SP2DService{
		db:           db,
		otpSvc:       NewOTPService(db),
		emergencySvc: NewEmergencyService(db),
		notifSvc:     NewNotificationService(db),
	}
}

type IssueSP2DRequest struct {
	SPMID         uint   `json:"spm_id"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	AccountHolder string `json:"account_holder"`
}

func (r *IssueSP2DRequest) validate() error {
	if r.SPMID == 0 {
		return response.NewBadRequest("SPM sumber wajib dipilih")
	}
	if r.BankName == "" {
		return response.NewBadRequest("Nama bank wajib diisi")
	}
	if r.BankAccount == "" {
		return response.NewBadRequest("Nomor rekening wajib diisi")
	}
	return nil
}

type SP2DListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
	Search   string `form:"search"`
}

type SP2DListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.SP2D `json:"items"`
}

// Issue creates the disbursement order for an approved SPM. At most one
// SP2D exists per SPM; the unique index on spm_id backs this up against
// concurrent issuance.
func (s *SP2DService) Issue(actorID uint, req *IssueSP2DRequest) (*models.SP2D, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RolePerbendaharaan && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya bidang perbendaharaan yang dapat menerbitkan SP2D")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	var spm models.SPM
	if err := s.db.First(&spm, req.SPMID).Error; err != nil {
		return nil, response.NewNotFound("SPM tidak ditemukan")
	}
	if spm.Status != models.SPMStatusDisetujui {
		return nil, response.NewConflict("SP2D hanya dapat diterbitkan dari SPM yang telah disetujui")
	}

	var existing models.SP2D
	if err := s.db.Where("spm_id = ?", spm.ID).First(&existing).Error; err == nil {
		return nil, response.NewConflict(fmt.Sprintf("SP2D untuk SPM %s sudah diterbitkan", spm.Number))
	}

	number, err := generateDocumentNumber("SP2D")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sp2d := &models.SP2D{
		Number:        number,
		SPMID:         spm.ID,
		BankName:      req.BankName,
		BankAccount:   req.BankAccount,
		AccountHolder: req.AccountHolder,
		Amount:        spm.NetAmount,
		Status:        models.SP2DStatusDiterbitkan,
		IsEmergency:   spm.IsEmergency,
		IssuedAt:      &now,
	}
	if err := s.db.Create(sp2d).Error; err != nil {
		return nil, err
	}

	LogInfo("sp2d", "issue", fmt.Sprintf("SP2D %s diterbitkan dari SPM %s", sp2d.Number, spm.Number), &actor.ID, "", "", nil)
	s.notifSvc.Dispatch(&NotificationEvent{
		UserID:   spm.SubmitterID,
		Title:    "SP2D Diterbitkan",
		Body:     fmt.Sprintf("SP2D %s untuk SPM %s telah diterbitkan sebesar Rp%d.", sp2d.Number, spm.Number, sp2d.Amount),
		Category: "disbursement",
		RefType:  "sp2d",
		RefID:    &sp2d.ID,
	})

	return sp2d, nil
}

// RequestOTP issues a step-up code for verifying the SP2D.
func (s *SP2DService) RequestOTP(actorID, sp2dID uint) (*IssueResult, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	sp2d, err := s.Get(sp2dID)
	if err != nil {
		return nil, err
	}
	if sp2d.Status != models.SP2DStatusDiterbitkan {
		return nil, response.NewConflict("SP2D tidak berstatus diterbitkan")
	}
	if actor.Role != models.RolePerbendaharaan && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya bidang perbendaharaan yang dapat memverifikasi SP2D")
	}
	if s.emergencySvc.IsActive() {
		return nil, response.NewConflict("Mode darurat aktif, verifikasi tidak memerlukan OTP")
	}
	return s.otpSvc.Issue(actor.ID, models.OTPPurposeSP2DVerification, nil, &sp2d.ID)
}

// Verify performs the OTP-gated diterbitkan → diverifikasi transition.
// During emergency mode the OTP check is skipped and the order is tagged.
func (s *SP2DService) Verify(actorID, sp2dID uint, otpCode string) (*models.SP2D, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	sp2d, err := s.Get(sp2dID)
	if err != nil {
		return nil, err
	}
	if sp2d.Status != models.SP2DStatusDiterbitkan {
		return nil, response.NewConflict("SP2D tidak berstatus diterbitkan")
	}
	if actor.Role != models.RolePerbendaharaan && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya bidang perbendaharaan yang dapat memverifikasi SP2D")
	}

	emergency := s.emergencySvc.IsActive()
	if !emergency {
		if otpCode == "" {
			return nil, response.NewBadRequest("Kode verifikasi OTP wajib diisi")
		}
		if err := s.otpSvc.Verify(actor.ID, models.OTPPurposeSP2DVerification, nil, &sp2d.ID, otpCode); err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
	}

	now := time.Now()
	if err := s.transition(sp2d, models.SP2DStatusDiverifikasi, map[string]interface{}{
		"verified_at":  now,
		"verified_by":  actor.ID,
		"is_emergency": sp2d.IsEmergency || emergency,
	}); err != nil {
		return nil, err
	}

	if emergency {
		LogEmergency("sp2d", "verify", fmt.Sprintf("SP2D %s diverifikasi tanpa OTP (mode darurat)", sp2d.Number), &actor.ID, "", "", nil)
	} else {
		LogInfo("sp2d", "verify", fmt.Sprintf("SP2D %s diverifikasi", sp2d.Number), &actor.ID, "", "", nil)
	}

	return s.Get(sp2dID)
}

// Advance moves a verified SP2D one step along the bank progression:
// diverifikasi → dikirim_bank → dikonfirmasi → cair.
func (s *SP2DService) Advance(actorID, sp2dID uint) (*models.SP2D, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	sp2d, err := s.Get(sp2dID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RolePerbendaharaan && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya bidang perbendaharaan yang dapat memproses SP2D")
	}

	var next, timeColumn string
	switch sp2d.Status {
	case models.SP2DStatusDiverifikasi:
		next, timeColumn = models.SP2DStatusDikirimBank, "sent_to_bank_at"
	case models.SP2DStatusDikirimBank:
		next, timeColumn = models.SP2DStatusDikonfirmasi, "confirmed_at"
	case models.SP2DStatusDikonfirmasi:
		next, timeColumn = models.SP2DStatusCair, "disbursed_at"
	case models.SP2DStatusDiterbitkan:
		return nil, response.NewConflict("SP2D harus diverifikasi terlebih dahulu")
	default:
		return nil, response.NewConflict("SP2D sudah berada pada tahap akhir")
	}

	if err := s.transition(sp2d, next, map[string]interface{}{
		timeColumn: time.Now(),
	}); err != nil {
		return nil, err
	}

	LogInfo("sp2d", "advance", fmt.Sprintf("SP2D %s maju ke tahap %s", sp2d.Number, next), &actor.ID, "", "", nil)

	if next == models.SP2DStatusCair {
		var spm models.SPM
		if err := s.db.First(&spm, sp2d.SPMID).Error; err == nil {
			s.notifSvc.Dispatch(&NotificationEvent{
				UserID:   spm.SubmitterID,
				Title:    "Dana Telah Cair",
				Body:     fmt.Sprintf("Dana SP2D %s untuk SPM %s telah cair sebesar Rp%d.", sp2d.Number, spm.Number, sp2d.Amount),
				Category: "disbursement",
				RefType:  "sp2d",
				RefID:    &sp2d.ID,
			})
		}
	}

	return s.Get(sp2dID)
}

// Get loads one SP2D with its source SPM preloaded.
func (s *SP2DService) Get(sp2dID uint) (*models.SP2D, error) {
	var sp2d models.SP2D
	err := s.db.Preload("SPM").First(&sp2d, sp2dID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("SP2D tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &sp2d, nil
}

// List returns a filtered page of SP2Ds.
func (s *SP2DService) List(req *SP2DListRequest) (*SP2DListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.SP2D{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		query = query.Where("number LIKE ? OR bank_account LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var items []models.SP2D
	offset := (req.Page - 1) * req.PageSize
	err := query.Preload("SPM").Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &SP2DListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

func (s *SP2DService) transition(sp2d *models.SP2D, newStatus string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":  newStatus,
		"version": sp2d.Version + 1,
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.Model(&models.SP2D{}).
		Where("id = ? AND status = ? AND version = ?", sp2d.ID, sp2d.Status, sp2d.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return response.NewConflict("SP2D telah diubah oleh pengguna lain, muat ulang dan coba kembali")
	}
	return nil
}

func (s *SP2DService) loadActor(actorID uint) (*models.User, error) {
	var actor models.User
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, response.NewUnauthorized("Pengguna tidak ditemukan")
	}
	if !actor.IsActive {
		return nil, response.NewForbidden("Akun Anda dinonaktifkan")
	}
	if actor.IsDemo {
		return nil, response.NewForbidden("Akun demo tidak dapat mengubah data")
	}
	return &actor, nil
}
