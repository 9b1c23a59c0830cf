package services

import (
	"github.com/robfig/cron/v3"

	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// Scheduler runs the periodic housekeeping jobs: the archive sweep, the
// emergency-mode expiry check and credential cleanup.
type Scheduler struct {
	cron         *cron.Cron
	archiveSvc   *ArchiveService
	emergencySvc *EmergencyService
	otpSvc       *OTPService
	authSvc      *AuthService
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		archiveSvc:   NewArchiveService(db),
		emergencySvc: NewEmergencyService(db),
		otpSvc:       NewOTPService(db),
		authSvc:      NewAuthService(db),
	}
}

// Start registers the jobs and launches the cron loop. The emergency
// expiry check runs often because the 24-hour cap must not slip by a full
// day; the heavier sweeps run nightly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/10 * * * *", s.runEmergencyExpiry); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 2 * * *", s.runArchiveSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("30 2 * * *", s.runCredentialCleanup); err != nil {
		return err
	}

	s.cron.Start()
	logger.Infof("[Scheduler] Started (emergency expiry every 10m, sweeps nightly)")
	return nil
}

// Stop halts the cron loop, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] Stopped")
}

func (s *Scheduler) runEmergencyExpiry() {
	if err := s.emergencySvc.ExpireIfOverdue(); err != nil {
		logger.Errorf("[Scheduler] Emergency expiry check failed: %v", err)
	}
}

func (s *Scheduler) runArchiveSweep() {
	result, err := s.archiveSvc.Sweep()
	if err != nil {
		logger.Errorf("[Scheduler] Archive sweep failed: %v", err)
		return
	}
	if result.SPMArchived > 0 || result.SP2DArchived > 0 || result.Errors > 0 {
		logger.Infof("[Scheduler] Archive sweep: %d SPM, %d SP2D archived, %d errors",
			result.SPMArchived, result.SP2DArchived, result.Errors)
	}
}

func (s *Scheduler) runCredentialCleanup() {
	if n, err := s.otpSvc.CleanupExpired(); err != nil {
		logger.Errorf("[Scheduler] OTP cleanup failed: %v", err)
	} else if n > 0 {
		logger.Infof("[Scheduler] Removed %d expired OTP records", n)
	}

	if n, err := s.authSvc.CleanupExpiredTokens(); err != nil {
		logger.Errorf("[Scheduler] Refresh token cleanup failed: %v", err)
	} else if n > 0 {
		logger.Infof("[Scheduler] Removed %d expired refresh tokens", n)
	}
}
