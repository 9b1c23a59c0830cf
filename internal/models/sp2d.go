package models

import (
	"time"

	"gorm.io/gorm"
)

// SP2D (Surat Perintah Pencairan Dana) statuses, in fixed forward order.
const (
	SP2DStatusDiterbitkan  = "diterbitkan"
	SP2DStatusDiverifikasi = "diverifikasi"
	SP2DStatusDikirimBank  = "dikirim_bank"
	SP2DStatusDikonfirmasi = "dikonfirmasi"
	SP2DStatusCair         = "cair"
)

// SP2DStageOrder is the fixed forward stage sequence for disbursement orders.
var SP2DStageOrder = []string{
	SP2DStatusDiterbitkan,
	SP2DStatusDiverifikasi,
	SP2DStatusDikirimBank,
	SP2DStatusDikonfirmasi,
	SP2DStatusCair,
}

// SP2DStageIndex returns the position of status in the forward sequence, or -1.
func SP2DStageIndex(status string) int {
	for i, s := range SP2DStageOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// SP2D is a fund disbursement order issued from an approved SPM. The
// diterbitkan → diverifikasi transition requires OTP step-up verification
// unless emergency mode is active.
type SP2D struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Number        string `gorm:"uniqueIndex;size:100;not null" json:"number"`
	SPMID         uint   `gorm:"uniqueIndex;not null" json:"spm_id"`
	SPM           *SPM   `gorm:"foreignKey:SPMID" json:"spm,omitempty"`
	BankName      string `gorm:"size:200;not null" json:"bank_name"`
	BankAccount   string `gorm:"size:50;not null" json:"bank_account"`
	AccountHolder string `gorm:"size:200" json:"account_holder"`
	Amount        int64  `gorm:"not null" json:"amount"` // rupiah
	Status        string `gorm:"size:50;default:diterbitkan;index" json:"status"`
	Version       int    `gorm:"default:0" json:"version"`
	IsEmergency   bool   `gorm:"default:false" json:"is_emergency"`

	VerifiedBy *uint `json:"verified_by"`

	IssuedAt     *time.Time `json:"issued_at"`
	VerifiedAt   *time.Time `json:"verified_at"`
	SentToBankAt *time.Time `json:"sent_to_bank_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	DisbursedAt  *time.Time `gorm:"index" json:"disbursed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SP2D) TableName() string { return "sp2ds" }
