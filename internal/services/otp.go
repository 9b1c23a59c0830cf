package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// OTPService issues and verifies 6-digit step-up codes for the final SPM
// approval and the SP2D verification. Codes are stored as SHA-256 hashes
// only; issuing a new code never invalidates earlier outstanding codes.
type OTPService struct {
	db       *gorm.DB
	notifSvc *NotificationService
}

func NewOTPService(db *gorm.DB) *OTPService {
	return &OTPService{
		db:       db,
		notifSvc: NewNotificationService(db),
	}
}

// IssueResult reports where the code was delivered. The code itself is
// never returned to the caller.
type IssueResult struct {
	ExpiresAt time.Time        `json:"expires_at"`
	Delivery  []DeliveryResult `json:"delivery"`
}

// Issue generates a fresh 6-digit code for the given context and delivers
// it over email and WhatsApp. The in-app channel is skipped so the code
// cannot be read back from the notification list.
func (s *OTPService) Issue(userID uint, purpose string, spmID, sp2dID *uint) (*IssueResult, error) {
	code, err := generateOTPCode()
	if err != nil {
		return nil, err
	}

	record := models.OTPCode{
		UserID:    userID,
		SPMID:     spmID,
		SP2DID:    sp2dID,
		Purpose:   purpose,
		CodeHash:  hashOTPCode(code),
		ExpiresAt: time.Now().Add(models.OTPTTL),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	event := &NotificationEvent{
		UserID:    userID,
		Title:     "Kode Verifikasi SIMPA BEND",
		Body:      fmt.Sprintf("Kode verifikasi Anda: %s\nBerlaku %d menit. Jangan bagikan kode ini kepada siapapun.", code, int(models.OTPTTL.Minutes())),
		Category:  "otp",
		SkipInApp: true,
	}
	results := s.notifSvc.Dispatch(event)

	LogInfo("otp", "issue", fmt.Sprintf("OTP diterbitkan untuk user %d, tujuan %s", userID, purpose), &userID, "", "", nil)

	return &IssueResult{ExpiresAt: record.ExpiresAt, Delivery: results}, nil
}

// Verify checks code against the outstanding records for the context.
// Every failed check counts against each candidate record's attempt cap; a
// record that reaches the cap can never verify again. On success the
// matched record is consumed with a conditional single-row update, so a
// code verifies at most once even under concurrent requests.
func (s *OTPService) Verify(userID uint, purpose string, spmID, sp2dID *uint, code string) error {
	if len(code) != otpCodeLength {
		return fmt.Errorf("kode verifikasi tidak valid")
	}

	query := s.db.Where("user_id = ? AND purpose = ? AND is_used = ? AND expires_at > ?",
		userID, purpose, false, time.Now())
	if spmID != nil {
		query = query.Where("spm_id = ?", *spmID)
	}
	if sp2dID != nil {
		query = query.Where("sp2d_id = ?", *sp2dID)
	}

	var candidates []models.OTPCode
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("kode verifikasi tidak ditemukan atau sudah kedaluwarsa")
	}

	hashed := hashOTPCode(code)
	for i := range candidates {
		c := &candidates[i]
		if c.Attempts >= models.OTPMaxAttempts {
			continue
		}
		if c.CodeHash == hashed {
			res := s.db.Model(&models.OTPCode{}).
				Where("id = ? AND is_used = ?", c.ID, false).
				Updates(map[string]interface{}{"is_used": true, "attempts": gorm.Expr("attempts + 1")})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("kode verifikasi sudah digunakan")
			}
			return nil
		}
	}

	// Wrong code: burn one attempt on every candidate that is still live.
	for i := range candidates {
		c := &candidates[i]
		if c.Attempts >= models.OTPMaxAttempts {
			continue
		}
		if err := s.db.Model(c).Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			logger.Warnf("[OTP] Failed to record attempt on record %d: %v", c.ID, err)
		}
	}

	LogWarning("otp", "verify_failed", fmt.Sprintf("Verifikasi OTP gagal untuk user %d", userID), &userID, "", "", nil)
	return fmt.Errorf("kode verifikasi salah")
}

// CleanupExpired deletes codes past their TTL. Called by the scheduler.
func (s *OTPService) CleanupExpired() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now().Add(-24*time.Hour)).Delete(&models.OTPCode{})
	return res.RowsAffected, res.Error
}

const otpCodeLength = 6

func generateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
