package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// EmergencyMaxDuration caps how long emergency mode can stay active.
// Reads past the cap treat the mode as inactive even before the expiry
// sweep has run.
const EmergencyMaxDuration = 24 * time.Hour

// emergencyAlertRoles receive the fan-out notification on every toggle.
var emergencyAlertRoles = []string{
	models.RoleAdministrator,
	models.RoleKepalaBKAD,
	models.RolePerbendaharaan,
}

// EmergencyService controls the emergency bypass mode. While active, OTP
// step-up checks are skipped and every completed approval is tagged
// is_emergency for later audit.
type EmergencyService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
	notifSvc  *NotificationService
}

func NewEmergencyService(db *gorm.DB) *EmergencyService {
	return &EmergencyService{
		db:        db,
		configSvc: NewSystemConfigService(db),
		notifSvc:  NewNotificationService(db),
	}
}

// EmergencyStatus is the read model returned to clients.
type EmergencyStatus struct {
	Enabled     bool       `json:"enabled"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ActivatedBy string     `json:"activated_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Status returns the current emergency state. An activation older than
// EmergencyMaxDuration reads as inactive regardless of the stored flag.
func (s *EmergencyService) Status() *EmergencyStatus {
	status := &EmergencyStatus{
		Enabled: s.configSvc.GetBool("emergency_mode_enabled", false),
	}
	if !status.Enabled {
		return status
	}

	activatedAtStr := s.configSvc.GetWithDefault("emergency_mode_activated_at", "")
	if activatedAtStr != "" {
		if t, err := time.Parse(time.RFC3339, activatedAtStr); err == nil {
			status.ActivatedAt = &t
			expires := t.Add(EmergencyMaxDuration)
			status.ExpiresAt = &expires
			if time.Now().After(expires) {
				status.Enabled = false
				return status
			}
		}
	}

	status.ActivatedBy = s.configSvc.GetWithDefault("emergency_mode_activated_by", "")
	status.Reason = s.configSvc.GetWithDefault("emergency_mode_reason", "")
	return status
}

// IsActive reports whether the bypass is in force right now.
func (s *EmergencyService) IsActive() bool {
	return s.Status().Enabled
}

// Toggle activates or deactivates emergency mode. Authorization is checked
// against the actor's role as stored in the database, not the token claim.
// Activation requires a reason of at least 10 characters; the reason is
// validated before any state is touched. All four config rows change in
// one transaction so a crash can never leave a half-toggled mode.
func (s *EmergencyService) Toggle(actorID uint, enable bool, reason string) (*EmergencyStatus, error) {
	var actor models.User
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, response.NewUnauthorized("Pengguna tidak ditemukan")
	}
	if actor.Role != models.RoleAdministrator {
		return nil, response.NewForbidden("Hanya administrator yang dapat mengubah mode darurat")
	}
	if actor.IsDemo {
		return nil, response.NewForbidden("Akun demo tidak dapat mengubah mode darurat")
	}
	if enable && len(reason) < 10 {
		return nil, response.NewBadRequest("Alasan aktivasi mode darurat minimal 10 karakter")
	}

	current := s.Status()
	if current.Enabled == enable {
		if enable {
			return nil, response.NewConflict("Mode darurat sudah aktif")
		}
		return nil, response.NewConflict("Mode darurat sudah nonaktif")
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := setConfig(tx, "emergency_mode_enabled", strconv.FormatBool(enable)); err != nil {
			return err
		}
		if enable {
			if err := setConfig(tx, "emergency_mode_activated_at", now.Format(time.RFC3339)); err != nil {
				return err
			}
			if err := setConfig(tx, "emergency_mode_activated_by", actor.Username); err != nil {
				return err
			}
			return setConfig(tx, "emergency_mode_reason", reason)
		}
		if err := setConfig(tx, "emergency_mode_activated_at", ""); err != nil {
			return err
		}
		if err := setConfig(tx, "emergency_mode_activated_by", ""); err != nil {
			return err
		}
		return setConfig(tx, "emergency_mode_reason", "")
	})
	if err != nil {
		return nil, err
	}

	action := "deactivate"
	msg := fmt.Sprintf("Mode darurat dinonaktifkan oleh %s", actor.Username)
	if enable {
		action = "activate"
		msg = fmt.Sprintf("Mode darurat diaktifkan oleh %s: %s", actor.Username, reason)
	}
	LogEmergency("emergency", action, msg, &actor.ID, "", "", map[string]interface{}{"enabled": enable, "reason": reason})

	title := "Mode Darurat Dinonaktifkan"
	body := fmt.Sprintf("Mode darurat dinonaktifkan oleh %s pada %s.", actor.FullName, now.Format("02-01-2006 15:04"))
	if enable {
		title = "Mode Darurat Diaktifkan"
		body = fmt.Sprintf("Mode darurat diaktifkan oleh %s pada %s.\nAlasan: %s\nSeluruh persetujuan selama mode darurat berjalan tanpa verifikasi OTP dan ditandai untuk audit.", actor.FullName, now.Format("02-01-2006 15:04"), reason)
	}
	s.notifSvc.DispatchToRoles(emergencyAlertRoles, &NotificationEvent{
		Title:    title,
		Body:     body,
		Category: "emergency",
	})

	return s.Status(), nil
}

// ExpireIfOverdue deactivates the mode when the stored activation is older
// than EmergencyMaxDuration. Called by the scheduler; safe to run often.
func (s *EmergencyService) ExpireIfOverdue() error {
	if !s.configSvc.GetBool("emergency_mode_enabled", false) {
		return nil
	}

	activatedAtStr := s.configSvc.GetWithDefault("emergency_mode_activated_at", "")
	activatedAt, err := time.Parse(time.RFC3339, activatedAtStr)
	if err != nil {
		// Unreadable timestamp on an enabled mode: fail closed.
		logger.Warnf("[Emergency] Unparseable activation timestamp %q, deactivating", activatedAtStr)
	} else if time.Since(activatedAt) < EmergencyMaxDuration {
		return nil
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := setConfig(tx, "emergency_mode_enabled", "false"); err != nil {
			return err
		}
		if err := setConfig(tx, "emergency_mode_activated_at", ""); err != nil {
			return err
		}
		if err := setConfig(tx, "emergency_mode_activated_by", ""); err != nil {
			return err
		}
		return setConfig(tx, "emergency_mode_reason", "")
	})
	if txErr != nil {
		return txErr
	}

	LogEmergency("emergency", "auto_expire", "Mode darurat dinonaktifkan otomatis setelah melewati batas 24 jam", nil, "", "", nil)
	s.notifSvc.DispatchToRoles(emergencyAlertRoles, &NotificationEvent{
		Title:    "Mode Darurat Berakhir",
		Body:     "Mode darurat telah dinonaktifkan otomatis setelah melewati batas 24 jam.",
		Category: "emergency",
	})
	return nil
}
