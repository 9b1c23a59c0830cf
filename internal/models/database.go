package models

import (
	"fmt"

	"github.com/bkadkota/simpa-bend/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&OPD{},
		&RefreshToken{},
		&SPM{},
		&SP2D{},
		&OTPCode{},
		&Notification{},
		&SystemConfig{},
		&SystemLog{},
		&SPMArchive{},
		&SP2DArchive{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default configuration rows if not exists.
// Every operational setting the handlers and services read through the
// system config service must have a seeded default here.
func SeedDefaultData() error {
	defaultConfigs := []SystemConfig{
		// General
		{Key: "target_spm_bulanan", Value: "50", Type: "int", Group: "general", Label: "Target SPM per Bulan"},
		{Key: "spm_review_due_days", Value: "5", Type: "int", Group: "general", Label: "Batas Hari Kerja Review SPM"},

		// Archive
		{Key: "auto_archive_days", Value: "30", Type: "int", Group: "archive", Label: "Usia Arsip Otomatis (hari)"},

		// Emergency mode
		{Key: "emergency_mode_enabled", Value: "false", Type: "bool", Group: "emergency", Label: "Mode Darurat Aktif"},
		{Key: "emergency_mode_activated_at", Value: "", Type: "string", Group: "emergency", Label: "Waktu Aktivasi Mode Darurat"},
		{Key: "emergency_mode_activated_by", Value: "", Type: "string", Group: "emergency", Label: "Aktivator Mode Darurat"},
		{Key: "emergency_mode_reason", Value: "", Type: "string", Group: "emergency", Label: "Alasan Mode Darurat"},

		// Email (SMTP)
		{Key: "email_enabled", Value: "false", Type: "bool", Group: "email", Label: "Enable Email Notifications"},
		{Key: "email_host", Value: "", Type: "string", Group: "email", Label: "SMTP Host"},
		{Key: "email_port", Value: "587", Type: "int", Group: "email", Label: "SMTP Port"},
		{Key: "email_username", Value: "", Type: "string", Group: "email", Label: "SMTP Username"},
		{Key: "email_password", Value: "", Type: "string", Group: "email", Label: "SMTP Password"},
		{Key: "email_from", Value: "", Type: "string", Group: "email", Label: "Sender Address"},
		{Key: "email_use_tls", Value: "true", Type: "bool", Group: "email", Label: "Use TLS"},

		// WhatsApp gateway (Fonnte-compatible)
		{Key: "wa_enabled", Value: "false", Type: "bool", Group: "whatsapp", Label: "Enable WhatsApp Notifications"},
		{Key: "wa_base_url", Value: "https://api.fonnte.com", Type: "string", Group: "whatsapp", Label: "Gateway Base URL"},
		{Key: "wa_api_key", Value: "", Type: "string", Group: "whatsapp", Label: "Gateway API Key"},
		{Key: "wa_country_code", Value: "62", Type: "string", Group: "whatsapp", Label: "Default Country Code"},

		// Auth / session
		{Key: "auth_access_token_expire_hours", Value: "24", Type: "int", Group: "auth", Label: "Access Token Expiry (hours)"},
		{Key: "auth_refresh_token_expire_hours", Value: "720", Type: "int", Group: "auth", Label: "Refresh Token Expiry (hours)"},

		// LDAP
		{Key: "ldap_enabled", Value: "false", Type: "bool", Group: "ldap", Label: "Enable LDAP Authentication"},
		{Key: "ldap_host", Value: "", Type: "string", Group: "ldap", Label: "LDAP Server Host"},
		{Key: "ldap_port", Value: "389", Type: "int", Group: "ldap", Label: "LDAP Server Port"},
		{Key: "ldap_base_dn", Value: "", Type: "string", Group: "ldap", Label: "LDAP Base DN"},
		{Key: "ldap_bind_dn", Value: "", Type: "string", Group: "ldap", Label: "LDAP Bind DN"},
		{Key: "ldap_bind_password", Value: "", Type: "string", Group: "ldap", Label: "LDAP Bind Password"},
		{Key: "ldap_user_filter", Value: "(uid=%s)", Type: "string", Group: "ldap", Label: "LDAP User Filter"},
		{Key: "ldap_use_ssl", Value: "false", Type: "bool", Group: "ldap", Label: "Use SSL/TLS"},

		// System
		{Key: "log_retention_days", Value: "90", Type: "int", Group: "system", Label: "Audit Log Retention Days"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("key = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	// Seed a fallback OPD so administrator-created users always have a home unit.
	var opdCount int64
	DB.Model(&OPD{}).Count(&opdCount)
	if opdCount == 0 {
		opd := OPD{
			Code:     "4.05.05",
			Name:     "Badan Keuangan dan Aset Daerah",
			IsActive: true,
		}
		if err := DB.Create(&opd).Error; err != nil {
			return err
		}
	}

	return nil
}
