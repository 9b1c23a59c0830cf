package models

import "time"

// SPMArchive is an immutable snapshot of an approved SPM taken by the
// auto-archive sweep. SPMID is unique so the sweep is idempotent per row.
type SPMArchive struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"` // uuid
	SPMID      uint       `gorm:"uniqueIndex;not null" json:"spm_id"`
	Number     string     `gorm:"size:100" json:"number"`
	OPDName    string     `gorm:"size:255" json:"opd_name"`
	Recipient  string     `gorm:"size:255" json:"recipient"`
	NetAmount  int64      `json:"net_amount"`
	Status     string     `gorm:"size:50" json:"status"`
	ApprovedAt *time.Time `json:"approved_at"`
	Snapshot   string     `gorm:"type:text" json:"snapshot"` // full source row as JSON
	ArchivedAt time.Time  `gorm:"index" json:"archived_at"`
}

// SP2DArchive is the disbursement-order counterpart of SPMArchive.
type SP2DArchive struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"` // uuid
	SP2DID      uint       `gorm:"uniqueIndex;not null" json:"sp2d_id"`
	Number      string     `gorm:"size:100" json:"number"`
	SPMNumber   string     `gorm:"size:100" json:"spm_number"`
	Amount      int64      `json:"amount"`
	Status      string     `gorm:"size:50" json:"status"`
	DisbursedAt *time.Time `json:"disbursed_at"`
	Snapshot    string     `gorm:"type:text" json:"snapshot"`
	ArchivedAt  time.Time  `gorm:"index" json:"archived_at"`
}

func (SPMArchive) TableName() string  { return "spm_archives" }
func (SP2DArchive) TableName() string { return "sp2d_archives" }
