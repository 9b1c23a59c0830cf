package services

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// stageStep describes one forward transition of the SPM review chain: who
// may perform it and which timestamp/note columns it fills.
type stageStep struct {
	Next       string
	Role       string
	TimeColumn string
	NoteColumn string
}

// spmStageSteps keys on the current status. The final step out of
// kepala_bkad_review is handled by Approve, not Advance, because it adds
// the OTP gate.
var spmStageSteps = map[string]stageStep{
	models.SPMStatusDiajukan: {
		Next:       models.SPMStatusResepsionisVerifikasi,
		Role:       models.RoleResepsionis,
		TimeColumn: "reception_verified_at",
		NoteColumn: "reception_note",
	},
	models.SPMStatusResepsionisVerifikasi: {
		Next:       models.SPMStatusPBMDVerifikasi,
		Role:       models.RolePBMD,
		TimeColumn: "asset_verified_at",
		NoteColumn: "asset_note",
	},
	models.SPMStatusPBMDVerifikasi: {
		Next:       models.SPMStatusAkuntansiValidasi,
		Role:       models.RoleAkuntansi,
		TimeColumn: "accounting_validated_at",
		NoteColumn: "accounting_note",
	},
	models.SPMStatusAkuntansiValidasi: {
		Next:       models.SPMStatusPerbendaharaanVerifikasi,
		Role:       models.RolePerbendaharaan,
		TimeColumn: "treasury_verified_at",
		NoteColumn: "treasury_note",
	},
	models.SPMStatusPerbendaharaanVerifikasi: {
		Next:       models.SPMStatusKepalaBKADReview,
		Role:       models.RoleKepalaBKAD,
		TimeColumn: "head_reviewed_at",
		NoteColumn: "head_note",
	},
}

// stageActorRole returns the role allowed to act on an SPM in the given
// status (for revision and rejection decisions).
func stageActorRole(status string) (string, bool) {
	if step, ok := spmStageSteps[status]; ok {
		return step.Role, true
	}
	if status == models.SPMStatusKepalaBKADReview {
		return models.RoleKepalaBKAD, true
	}
	return "", false
}

// WorkflowService drives the SPM lifecycle: creation, submission, the
// five-stage review chain, the OTP-gated final approval, and the revision
// and rejection side exits. Every status write is a conditional update on
// (status, version) so concurrent actors cannot double-apply a transition.
type WorkflowService struct {
	db           *gorm.DB
	configSvc    *SystemConfigService
	workdaySvc   *WorkdayService
	otpSvc       *OTPService
	emergencySvc *EmergencyService
	notifSvc     *NotificationService
}

func NewWorkflowService(db *gorm.DB) *WorkflowService {
	return &WorkflowService{
		db:           db,
		configSvc:    NewSystemConfigService(db),
		workdaySvc:   NewWorkdayService(),
		otpSvc:       NewOTPService(db),
		emergencySvc: NewEmergencyService(db),
		notifSvc:     NewNotificationService(db),
	}
}

type CreateSPMRequest struct {
	GrossAmount int64  `json:"gross_amount"`
	NetAmount   int64  `json:"net_amount"`
	Recipient   string `json:"recipient"`
	Description string `json:"description"`
}

func (r *CreateSPMRequest) validate() error {
	if r.GrossAmount <= 0 {
		return response.NewBadRequest("Nilai kotor SPM harus lebih dari nol")
	}
	if r.NetAmount <= 0 {
		return response.NewBadRequest("Nilai bersih SPM harus lebih dari nol")
	}
	if r.NetAmount > r.GrossAmount {
		return response.NewBadRequest("Nilai bersih tidak boleh melebihi nilai kotor")
	}
	if r.Recipient == "" {
		return response.NewBadRequest("Penerima pembayaran wajib diisi")
	}
	return nil
}

type UpdateSPMRequest struct {
	GrossAmount *int64  `json:"gross_amount"`
	NetAmount   *int64  `json:"net_amount"`
	Recipient   *string `json:"recipient"`
	Description *string `json:"description"`
}

type SPMListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
	OPDID    uint   `form:"opd_id"`
	Search   string `form:"search"`
	Overdue  bool   `form:"overdue"`
}

type SPMListResponse struct {
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Items    []models.SPM `json:"items"`
}

// Create registers a new SPM in draft for the actor's spending unit.
func (s *WorkflowService) Create(actorID uint, req *CreateSPMRequest) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOPD && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya pengguna OPD yang dapat membuat SPM")
	}
	if actor.OPDID == nil {
		return nil, response.NewBadRequest("Pengguna tidak terhubung ke OPD manapun")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	number, err := generateDocumentNumber("SPM")
	if err != nil {
		return nil, err
	}

	spm := &models.SPM{
		Number:      number,
		OPDID:       *actor.OPDID,
		SubmitterID: actor.ID,
		GrossAmount: req.GrossAmount,
		NetAmount:   req.NetAmount,
		Recipient:   req.Recipient,
		Description: req.Description,
		Status:      models.SPMStatusDraft,
	}
	if err := s.db.Create(spm).Error; err != nil {
		return nil, err
	}

	LogInfo("spm", "create", fmt.Sprintf("SPM %s dibuat", spm.Number), &actor.ID, "", "", nil)
	return spm, nil
}

// Update edits an SPM that is still editable (draft or returned for
// revision), by its submitter or an administrator.
func (s *WorkflowService) Update(actorID, spmID uint, req *UpdateSPMRequest) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}
	if spm.Status != models.SPMStatusDraft && spm.Status != models.SPMStatusPerluRevisi {
		return nil, response.NewConflict("SPM hanya dapat diubah saat berstatus draft atau perlu revisi")
	}
	if actor.Role != models.RoleAdministrator && actor.ID != spm.SubmitterID {
		return nil, response.NewForbidden("Hanya pengaju SPM yang dapat mengubahnya")
	}

	updates := map[string]interface{}{}
	if req.GrossAmount != nil {
		updates["gross_amount"] = *req.GrossAmount
	}
	if req.NetAmount != nil {
		updates["net_amount"] = *req.NetAmount
	}
	if req.Recipient != nil {
		updates["recipient"] = *req.Recipient
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return spm, nil
	}

	check := CreateSPMRequest{
		GrossAmount: spm.GrossAmount,
		NetAmount:   spm.NetAmount,
		Recipient:   spm.Recipient,
		Description: spm.Description,
	}
	if req.GrossAmount != nil {
		check.GrossAmount = *req.GrossAmount
	}
	if req.NetAmount != nil {
		check.NetAmount = *req.NetAmount
	}
	if req.Recipient != nil {
		check.Recipient = *req.Recipient
	}
	if err := check.validate(); err != nil {
		return nil, err
	}

	if err := s.db.Model(spm).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(spmID)
}

// Submit moves a draft into the review chain and stamps the business-day
// due date for the whole chain.
func (s *WorkflowService) Submit(actorID, spmID uint) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdministrator && actor.ID != spm.SubmitterID {
		return nil, response.NewForbidden("Hanya pengaju SPM yang dapat mengajukannya")
	}
	if spm.Status != models.SPMStatusDraft {
		return nil, response.NewConflict("SPM tidak berstatus draft")
	}

	now := time.Now()
	dueDays := s.configSvc.GetInt("spm_review_due_days", 5)
	dueDate := s.workdaySvc.AddBusinessDays(now, dueDays)

	if err := s.transition(spm, models.SPMStatusDiajukan, map[string]interface{}{
		"submitted_at": now,
		"due_date":     dueDate,
	}); err != nil {
		return nil, err
	}

	LogInfo("spm", "submit", fmt.Sprintf("SPM %s diajukan", spm.Number), &actor.ID, "", "", nil)
	s.notifyRoles([]string{models.RoleResepsionis}, &NotificationEvent{
		Title:    "SPM Baru Menunggu Verifikasi",
		Body:     fmt.Sprintf("SPM %s dari %s menunggu verifikasi penerimaan.", spm.Number, s.opdName(spm.OPDID)),
		Category: "approval",
		RefType:  "spm",
		RefID:    &spm.ID,
	})

	return s.Get(spmID)
}

// Advance performs the review step for the SPM's current stage. The actor
// must hold the stage's role (administrators may act for any stage).
func (s *WorkflowService) Advance(actorID, spmID uint, note string) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}

	step, ok := spmStageSteps[spm.Status]
	if !ok {
		if spm.Status == models.SPMStatusKepalaBKADReview {
			return nil, response.NewConflict("Tahap akhir memerlukan persetujuan dengan verifikasi OTP")
		}
		return nil, response.NewConflict("SPM tidak berada pada tahap verifikasi")
	}
	if actor.Role != step.Role && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Peran Anda tidak berwenang pada tahap ini")
	}

	updates := map[string]interface{}{
		step.TimeColumn: time.Now(),
	}
	if note != "" {
		updates[step.NoteColumn] = note
	}
	if err := s.transition(spm, step.Next, updates); err != nil {
		return nil, err
	}

	LogInfo("spm", "advance", fmt.Sprintf("SPM %s maju ke tahap %s", spm.Number, step.Next), &actor.ID, "", "", nil)

	if nextStep, ok := spmStageSteps[step.Next]; ok {
		s.notifyRoles([]string{nextStep.Role}, &NotificationEvent{
			Title:    "SPM Menunggu Tindakan Anda",
			Body:     fmt.Sprintf("SPM %s telah lolos tahap sebelumnya dan menunggu tindakan Anda.", spm.Number),
			Category: "approval",
			RefType:  "spm",
			RefID:    &spm.ID,
		})
	} else if step.Next == models.SPMStatusKepalaBKADReview {
		s.notifyRoles([]string{models.RoleKepalaBKAD}, &NotificationEvent{
			Title:    "SPM Menunggu Persetujuan Akhir",
			Body:     fmt.Sprintf("SPM %s menunggu persetujuan akhir Kepala BKAD.", spm.Number),
			Category: "approval",
			RefType:  "spm",
			RefID:    &spm.ID,
		})
	}

	return s.Get(spmID)
}

// RequestOTP issues a step-up code for the final approval of the SPM.
func (s *WorkflowService) RequestOTP(actorID, spmID uint) (*IssueResult, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}
	if spm.Status != models.SPMStatusKepalaBKADReview {
		return nil, response.NewConflict("SPM belum berada pada tahap persetujuan akhir")
	}
	if actor.Role != models.RoleKepalaBKAD && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya Kepala BKAD yang dapat meminta kode persetujuan")
	}
	if s.emergencySvc.IsActive() {
		return nil, response.NewConflict("Mode darurat aktif, persetujuan tidak memerlukan OTP")
	}
	return s.otpSvc.Issue(actor.ID, models.OTPPurposeSPMApproval, &spm.ID, nil)
}

// Approve completes the review chain. Outside emergency mode the actor
// must present a valid OTP; during emergency mode the check is skipped and
// the approval is tagged is_emergency.
func (s *WorkflowService) Approve(actorID, spmID uint, otpCode, note string) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}
	if spm.Status != models.SPMStatusKepalaBKADReview {
		return nil, response.NewConflict("SPM belum berada pada tahap persetujuan akhir")
	}
	if actor.Role != models.RoleKepalaBKAD && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya Kepala BKAD yang dapat menyetujui SPM")
	}

	emergency := s.emergencySvc.IsActive()
	if !emergency {
		if otpCode == "" {
			return nil, response.NewBadRequest("Kode verifikasi OTP wajib diisi")
		}
		if err := s.otpSvc.Verify(actor.ID, models.OTPPurposeSPMApproval, &spm.ID, nil, otpCode); err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"approved_at":  now,
		"is_emergency": spm.IsEmergency || emergency,
	}
	if note != "" {
		updates["head_note"] = note
	}
	if err := s.transition(spm, models.SPMStatusDisetujui, updates); err != nil {
		return nil, err
	}

	if emergency {
		LogEmergency("spm", "approve", fmt.Sprintf("SPM %s disetujui tanpa OTP (mode darurat)", spm.Number), &actor.ID, "", "", nil)
	} else {
		LogInfo("spm", "approve", fmt.Sprintf("SPM %s disetujui", spm.Number), &actor.ID, "", "", nil)
	}

	s.notifyUser(&NotificationEvent{
		UserID:   spm.SubmitterID,
		Title:    "SPM Disetujui",
		Body:     fmt.Sprintf("SPM %s telah disetujui dan siap diterbitkan SP2D.", spm.Number),
		Category: "approval",
		RefType:  "spm",
		RefID:    &spm.ID,
	})
	s.notifyRoles([]string{models.RolePerbendaharaan}, &NotificationEvent{
		Title:    "SPM Siap Penerbitan SP2D",
		Body:     fmt.Sprintf("SPM %s telah disetujui dan menunggu penerbitan SP2D.", spm.Number),
		Category: "approval",
		RefType:  "spm",
		RefID:    &spm.ID,
	})

	return s.Get(spmID)
}

// RequestRevision returns the SPM to its submitter with a mandatory note.
// Allowed from any review stage by the stage's actor.
func (s *WorkflowService) RequestRevision(actorID, spmID uint, note string) (*models.SPM, error) {
	if len(note) < 5 {
		return nil, response.NewBadRequest("Catatan revisi wajib diisi (minimal 5 karakter)")
	}
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}

	role, ok := stageActorRole(spm.Status)
	if !ok {
		return nil, response.NewConflict("SPM tidak berada pada tahap verifikasi")
	}
	if actor.Role != role && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Peran Anda tidak berwenang pada tahap ini")
	}

	if err := s.transition(spm, models.SPMStatusPerluRevisi, map[string]interface{}{
		"revision_note": note,
	}); err != nil {
		return nil, err
	}

	LogInfo("spm", "request_revision", fmt.Sprintf("SPM %s dikembalikan untuk revisi", spm.Number), &actor.ID, "", "", nil)
	s.notifyUser(&NotificationEvent{
		UserID:   spm.SubmitterID,
		Title:    "SPM Perlu Revisi",
		Body:     fmt.Sprintf("SPM %s dikembalikan untuk revisi.\nCatatan: %s", spm.Number, note),
		Category: "revision",
		RefType:  "spm",
		RefID:    &spm.ID,
	})

	return s.Get(spmID)
}

// Reject terminates the SPM with a mandatory reason. Allowed from any
// review stage by the stage's actor.
func (s *WorkflowService) Reject(actorID, spmID uint, note string) (*models.SPM, error) {
	if len(note) < 5 {
		return nil, response.NewBadRequest("Alasan penolakan wajib diisi (minimal 5 karakter)")
	}
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}

	role, ok := stageActorRole(spm.Status)
	if !ok {
		return nil, response.NewConflict("SPM tidak berada pada tahap verifikasi")
	}
	if actor.Role != role && actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Peran Anda tidak berwenang pada tahap ini")
	}

	if err := s.transition(spm, models.SPMStatusDitolak, map[string]interface{}{
		"rejection_note": note,
		"rejected_at":    time.Now(),
	}); err != nil {
		return nil, err
	}

	LogWarning("spm", "reject", fmt.Sprintf("SPM %s ditolak", spm.Number), &actor.ID, "", "", nil)
	s.notifyUser(&NotificationEvent{
		UserID:   spm.SubmitterID,
		Title:    "SPM Ditolak",
		Body:     fmt.Sprintf("SPM %s ditolak.\nAlasan: %s", spm.Number, note),
		Category: "rejection",
		RefType:  "spm",
		RefID:    &spm.ID,
	})

	return s.Get(spmID)
}

// Resubmit puts a revised SPM back at the head of the review chain. The
// whole chain restarts; earlier stage sign-offs do not carry over.
func (s *WorkflowService) Resubmit(actorID, spmID uint) (*models.SPM, error) {
	actor, err := s.loadActor(actorID)
	if err != nil {
		return nil, err
	}
	spm, err := s.Get(spmID)
	if err != nil {
		return nil, err
	}
	if spm.Status != models.SPMStatusPerluRevisi {
		return nil, response.NewConflict("SPM tidak berstatus perlu revisi")
	}
	if actor.Role != models.RoleAdministrator && actor.ID != spm.SubmitterID {
		return nil, response.NewForbidden("Hanya pengaju SPM yang dapat mengajukan ulang")
	}

	now := time.Now()
	dueDays := s.configSvc.GetInt("spm_review_due_days", 5)
	if err := s.transition(spm, models.SPMStatusDiajukan, map[string]interface{}{
		"submitted_at":            now,
		"due_date":                s.workdaySvc.AddBusinessDays(now, dueDays),
		"reception_verified_at":   nil,
		"asset_verified_at":       nil,
		"accounting_validated_at": nil,
		"treasury_verified_at":    nil,
		"head_reviewed_at":        nil,
	}); err != nil {
		return nil, err
	}

	LogInfo("spm", "resubmit", fmt.Sprintf("SPM %s diajukan ulang", spm.Number), &actor.ID, "", "", nil)
	s.notifyRoles([]string{models.RoleResepsionis}, &NotificationEvent{
		Title:    "SPM Diajukan Ulang",
		Body:     fmt.Sprintf("SPM %s telah direvisi dan diajukan ulang.", spm.Number),
		Category: "approval",
		RefType:  "spm",
		RefID:    &spm.ID,
	})

	return s.Get(spmID)
}

// Get loads one SPM with its OPD and submitter preloaded.
func (s *WorkflowService) Get(spmID uint) (*models.SPM, error) {
	var spm models.SPM
	err := s.db.Preload("OPD").Preload("Submitter").First(&spm, spmID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("SPM tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &spm, nil
}

// List returns a filtered page of SPMs. OPD users only see their own unit's
// documents; the handler passes their OPD id as a hard filter.
func (s *WorkflowService) List(req *SPMListRequest) (*SPMListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.SPM{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.OPDID != 0 {
		query = query.Where("opd_id = ?", req.OPDID)
	}
	if req.Search != "" {
		query = query.Where("number LIKE ? OR recipient LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}
	if req.Overdue {
		query = query.Where("due_date < ? AND status NOT IN ?", time.Now(),
			[]string{models.SPMStatusDraft, models.SPMStatusDisetujui, models.SPMStatusDitolak})
	}

	var total int64
	query.Count(&total)

	var items []models.SPM
	offset := (req.Page - 1) * req.PageSize
	err := query.Preload("OPD").Preload("Submitter").
		Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &SPMListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

// transition applies a conditional status update guarded by the row's
// current (status, version). Zero rows affected means another actor moved
// the document first.
func (s *WorkflowService) transition(spm *models.SPM, newStatus string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":  newStatus,
		"version": spm.Version + 1,
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.Model(&models.SPM{}).
		Where("id = ? AND status = ? AND version = ?", spm.ID, spm.Status, spm.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return response.NewConflict("SPM telah diubah oleh pengguna lain, muat ulang dan coba kembali")
	}
	return nil
}

func (s *WorkflowService) loadActor(actorID uint) (*models.User, error) {
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

func (s *WorkflowService) opdName(opdID uint) string {
	var opd models.OPD
	if err := s.db.First(&opd, opdID).Error; err != nil {
		return ""
	}
	return opd.Name
}

// notifyUser hands the event to the async queue when one is configured,
// falling back to direct in-process dispatch.
func (s *WorkflowService) notifyUser(event *NotificationEvent) {
	if q := GetTaskQueue(); q != nil {
		if err := q.Enqueue(&NotificationTask{Event: *event}); err == nil {
			return
		}
	}
	s.notifSvc.Dispatch(event)
}

func (s *WorkflowService) notifyRoles(roles []string, event *NotificationEvent) {
	var users []models.User
	if err := s.db.Where("role IN ? AND is_active = ?", roles, true).Find(&users).Error; err != nil {
		return
	}
	for _, u := range users {
		ev := *event
		ev.UserID = u.ID
		s.notifyUser(&ev)
	}
}

// documentNumberAlphabet excludes ambiguous characters.
const documentNumberAlphabet = "0123456789ABCDEFGHJKMNPQRSTUVWXYZ"

// generateDocumentNumber builds a number like SPM/2026/08/7KQ4M2XN.
func generateDocumentNumber(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(documentNumberAlphabet, 8)
	if err != nil {
		return "", err
	}
	now := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%s", prefix, now.Year(), now.Month(), suffix), nil
}
