package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int

// newTestDB opens a fresh in-memory database with the full schema and
// seeded defaults.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBCounter++
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.OPD{},
		&models.RefreshToken{},
		&models.SPM{},
		&models.SP2D{},
		&models.OTPCode{},
		&models.Notification{},
		&models.SystemConfig{},
		&models.SystemLog{},
		&models.SPMArchive{},
		&models.SP2DArchive{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	seedTestConfigs(t, db)
	InitSystemLogger(db)
	return db
}

func seedTestConfigs(t *testing.T, db *gorm.DB) {
	t.Helper()
	configs := []models.SystemConfig{
		{Key: "target_spm_bulanan", Value: "50", Type: "int", Group: "general"},
		{Key: "spm_review_due_days", Value: "5", Type: "int", Group: "general"},
		{Key: "auto_archive_days", Value: "30", Type: "int", Group: "archive"},
		{Key: "emergency_mode_enabled", Value: "false", Type: "bool", Group: "emergency"},
		{Key: "emergency_mode_activated_at", Value: "", Type: "string", Group: "emergency"},
		{Key: "emergency_mode_activated_by", Value: "", Type: "string", Group: "emergency"},
		{Key: "emergency_mode_reason", Value: "", Type: "string", Group: "emergency"},
		{Key: "email_enabled", Value: "false", Type: "bool", Group: "email"},
		{Key: "wa_enabled", Value: "false", Type: "bool", Group: "whatsapp"},
		{Key: "wa_country_code", Value: "62", Type: "string", Group: "whatsapp"},
	}
	for _, cfg := range configs {
		if err := db.Create(&cfg).Error; err != nil {
			t.Fatalf("failed to seed config %s: %v", cfg.Key, err)
		}
	}
}

func createTestOPD(t *testing.T, db *gorm.DB) *models.OPD {
	t.Helper()
	opd := &models.OPD{
		Code:     fmt.Sprintf("4.05.%02d", testDBCounter),
		Name:     "Dinas Pendidikan",
		IsActive: true,
	}
	if err := db.Create(opd).Error; err != nil {
		t.Fatalf("failed to create test OPD: %v", err)
	}
	return opd
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string, opdID *uint) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		FullName: username,
		Role:     role,
		OPDID:    opdID,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

// workflowFixture wires a database with one user per workflow role.
type workflowFixture struct {
	db        *gorm.DB
	opd       *models.OPD
	submitter *models.User
	actors    map[string]*models.User
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db := newTestDB(t)
	opd := createTestOPD(t, db)

	f := &workflowFixture{
		db:     db,
		opd:    opd,
		actors: make(map[string]*models.User),
	}
	f.submitter = createTestUser(t, db, "opd_user", models.RoleOPD, &opd.ID)
	for _, role := range []string{
		models.RoleAdministrator,
		models.RoleResepsionis,
		models.RolePBMD,
		models.RoleAkuntansi,
		models.RolePerbendaharaan,
		models.RoleKepalaBKAD,
	} {
		f.actors[role] = createTestUser(t, db, role+"_user", role, nil)
	}
	return f
}

// enableEmergency flips emergency mode on directly in config, bypassing
// the toggle authorization path.
func enableEmergency(t *testing.T, db *gorm.DB) {
	t.Helper()
	cfgSvc := NewSystemConfigService(db)
	if err := cfgSvc.Set("emergency_mode_enabled", "true"); err != nil {
		t.Fatalf("failed to enable emergency mode: %v", err)
	}
	if err := cfgSvc.Set("emergency_mode_activated_at", time.Now().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to set activation time: %v", err)
	}
}
