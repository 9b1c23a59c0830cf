package models

import "time"

// OTP purposes.
const (
	OTPPurposeSPMApproval      = "spm_approval"
	OTPPurposeSP2DVerification = "sp2d_verification"
)

// OTPMaxAttempts is the verification attempt cap per code record. A record
// that reaches the cap can never verify, even with the right code.
const OTPMaxAttempts = 5

// OTPTTL is how long an issued code stays valid.
const OTPTTL = 15 * time.Minute

// OTPCode is a one-time step-up verification code. Only the SHA-256 hash of
// the 6-digit code is stored. Issuing a new code never invalidates prior
// outstanding codes for the same context; each record lives out its own TTL.
type OTPCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	SPMID     *uint     `gorm:"index" json:"spm_id"`
	SP2DID    *uint     `gorm:"index" json:"sp2d_id"`
	Purpose   string    `gorm:"size:50;index;not null" json:"purpose"`
	CodeHash  string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

func (OTPCode) TableName() string { return "otp_codes" }
