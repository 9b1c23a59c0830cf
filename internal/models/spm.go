package models

import (
	"time"

	"gorm.io/gorm"
)

// SPM (Surat Perintah Membayar) statuses, in fixed forward order.
const (
	SPMStatusDraft                    = "draft"
	SPMStatusDiajukan                 = "diajukan"
	SPMStatusResepsionisVerifikasi    = "resepsionis_verifikasi"
	SPMStatusPBMDVerifikasi           = "pbmd_verifikasi"
	SPMStatusAkuntansiValidasi        = "akuntansi_validasi"
	SPMStatusPerbendaharaanVerifikasi = "perbendaharaan_verifikasi"
	SPMStatusKepalaBKADReview         = "kepala_bkad_review"
	SPMStatusDisetujui                = "disetujui"

	// Side exits
	SPMStatusPerluRevisi = "perlu_revisi"
	SPMStatusDitolak     = "ditolak"
)

// SPMStageOrder is the fixed forward stage sequence. Side-exit statuses
// (perlu_revisi, ditolak) are not part of the sequence.
var SPMStageOrder = []string{
	SPMStatusDraft,
	SPMStatusDiajukan,
	SPMStatusResepsionisVerifikasi,
	SPMStatusPBMDVerifikasi,
	SPMStatusAkuntansiValidasi,
	SPMStatusPerbendaharaanVerifikasi,
	SPMStatusKepalaBKADReview,
	SPMStatusDisetujui,
}

// SPMStageIndex returns the position of status in the forward sequence,
// or -1 for side-exit and unknown statuses.
func SPMStageIndex(status string) int {
	for i, s := range SPMStageOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// IsTerminalSPMStatus reports whether no further workflow action applies.
func IsTerminalSPMStatus(status string) bool {
	return status == SPMStatusDisetujui || status == SPMStatusDitolak
}

// SPM is a payment order submitted by a spending unit, progressed through
// the multi-stage approval workflow.
type SPM struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Number      string `gorm:"uniqueIndex;size:100;not null" json:"number"`
	OPDID       uint   `gorm:"index;not null" json:"opd_id"`
	OPD         *OPD   `gorm:"foreignKey:OPDID" json:"opd,omitempty"`
	SubmitterID uint   `gorm:"index;not null" json:"submitter_id"`
	Submitter   *User  `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	GrossAmount int64  `gorm:"not null" json:"gross_amount"` // rupiah
	NetAmount   int64  `gorm:"not null" json:"net_amount"`   // rupiah
	Recipient   string `gorm:"size:255;not null" json:"recipient"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:50;default:draft;index" json:"status"`

	// Version guards concurrent transitions: every status write is a
	// conditional update on (status, version).
	Version int `gorm:"default:0" json:"version"`

	// IsEmergency marks approvals completed while emergency mode was active
	// (OTP requirement bypassed).
	IsEmergency bool `gorm:"default:false" json:"is_emergency"`

	// DueDate is the business-day deadline for completing the review chain.
	DueDate *time.Time `json:"due_date"`

	// Per-stage completion timestamps.
	SubmittedAt           *time.Time `json:"submitted_at"`
	ReceptionVerifiedAt   *time.Time `json:"reception_verified_at"`
	AssetVerifiedAt       *time.Time `json:"asset_verified_at"`
	AccountingValidatedAt *time.Time `json:"accounting_validated_at"`
	TreasuryVerifiedAt    *time.Time `json:"treasury_verified_at"`
	HeadReviewedAt        *time.Time `json:"head_reviewed_at"`
	ApprovedAt            *time.Time `gorm:"index" json:"approved_at"`
	RejectedAt            *time.Time `json:"rejected_at"`

	// Per-stage free-text notes.
	ReceptionNote  string `gorm:"type:text" json:"reception_note"`
	AssetNote      string `gorm:"type:text" json:"asset_note"`
	AccountingNote string `gorm:"type:text" json:"accounting_note"`
	TreasuryNote   string `gorm:"type:text" json:"treasury_note"`
	HeadNote       string `gorm:"type:text" json:"head_note"`
	RevisionNote   string `gorm:"type:text" json:"revision_note"`
	RejectionNote  string `gorm:"type:text" json:"rejection_note"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SPM) TableName() string { return "spms" }
