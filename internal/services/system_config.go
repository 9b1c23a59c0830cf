package services

import (
	"strconv"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("`key` = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value == "true"
}

func (s *SystemConfigService) Set(key, value string) error {
	return setConfig(s.db, key, value)
}

// setConfig writes a config row on the given handle so callers can group
// several writes inside one transaction.
func setConfig(db *gorm.DB, key, value string) error {
	var cfg models.SystemConfig
	err := db.Where("`key` = ?", key).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("`group` = ?", group).Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

type EmailConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	From        string `json:"from"`
	UseTLS      bool   `json:"use_tls"`
	PasswordSet bool   `json:"password_set"`
}

func (s *SystemConfigService) GetEmailConfig() *EmailConfigResponse {
	return &EmailConfigResponse{
		Enabled:     s.GetBool("email_enabled", false),
		Host:        s.GetWithDefault("email_host", ""),
		Port:        s.GetInt("email_port", 587),
		Username:    s.GetWithDefault("email_username", ""),
		From:        s.GetWithDefault("email_from", ""),
		UseTLS:      s.GetBool("email_use_tls", true),
		PasswordSet: s.GetWithDefault("email_password", "") != "",
	}
}

type UpdateEmailConfigRequest struct {
	Enabled  *bool   `json:"enabled"`
	Host     *string `json:"host"`
	Port     *int    `json:"port"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	From     *string `json:"from"`
	UseTLS   *bool   `json:"use_tls"`
}

func (s *SystemConfigService) UpdateEmailConfig(req *UpdateEmailConfigRequest) error {
	if req.Enabled != nil {
		if err := s.Set("email_enabled", strconv.FormatBool(*req.Enabled)); err != nil {
			return err
		}
	}
	if req.Host != nil {
		if err := s.Set("email_host", *req.Host); err != nil {
			return err
		}
	}
	if req.Port != nil {
		if err := s.Set("email_port", strconv.Itoa(*req.Port)); err != nil {
			return err
		}
	}
	if req.Username != nil {
		if err := s.Set("email_username", *req.Username); err != nil {
			return err
		}
	}
	if req.Password != nil && *req.Password != "" {
		if err := s.Set("email_password", *req.Password); err != nil {
			return err
		}
	}
	if req.From != nil {
		if err := s.Set("email_from", *req.From); err != nil {
			return err
		}
	}
	if req.UseTLS != nil {
		if err := s.Set("email_use_tls", strconv.FormatBool(*req.UseTLS)); err != nil {
			return err
		}
	}
	return nil
}

type WhatsAppConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"base_url"`
	CountryCode string `json:"country_code"`
	APIKeySet   bool   `json:"api_key_set"`
}

func (s *SystemConfigService) GetWhatsAppConfig() *WhatsAppConfigResponse {
	return &WhatsAppConfigResponse{
		Enabled:     s.GetBool("wa_enabled", false),
		BaseURL:     s.GetWithDefault("wa_base_url", "https://api.fonnte.com"),
		CountryCode: s.GetWithDefault("wa_country_code", "62"),
		APIKeySet:   s.GetWithDefault("wa_api_key", "") != "",
	}
}

type UpdateWhatsAppConfigRequest struct {
	Enabled     *bool   `json:"enabled"`
	BaseURL     *string `json:"base_url"`
	APIKey      *string `json:"api_key"`
	CountryCode *string `json:"country_code"`
}

func (s *SystemConfigService) UpdateWhatsAppConfig(req *UpdateWhatsAppConfigRequest) error {
	if req.Enabled != nil {
		if err := s.Set("wa_enabled", strconv.FormatBool(*req.Enabled)); err != nil {
			return err
		}
	}
	if req.BaseURL != nil {
		if err := s.Set("wa_base_url", *req.BaseURL); err != nil {
			return err
		}
	}
	if req.APIKey != nil && *req.APIKey != "" {
		if err := s.Set("wa_api_key", *req.APIKey); err != nil {
			return err
		}
	}
	if req.CountryCode != nil {
		if err := s.Set("wa_country_code", *req.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

type GeneralConfigResponse struct {
	TargetSPMBulanan int `json:"target_spm_bulanan"`
	ReviewDueDays    int `json:"spm_review_due_days"`
	AutoArchiveDays  int `json:"auto_archive_days"`
}

func (s *SystemConfigService) GetGeneralConfig() *GeneralConfigResponse {
	return &GeneralConfigResponse{
		TargetSPMBulanan: s.GetInt("target_spm_bulanan", 50),
		ReviewDueDays:    s.GetInt("spm_review_due_days", 5),
		AutoArchiveDays:  s.GetInt("auto_archive_days", 30),
	}
}

type UpdateGeneralConfigRequest struct {
	TargetSPMBulanan *int `json:"target_spm_bulanan"`
	ReviewDueDays    *int `json:"spm_review_due_days"`
	AutoArchiveDays  *int `json:"auto_archive_days"`
}

func (s *SystemConfigService) UpdateGeneralConfig(req *UpdateGeneralConfigRequest) error {
	if req.TargetSPMBulanan != nil {
		if err := s.Set("target_spm_bulanan", strconv.Itoa(*req.TargetSPMBulanan)); err != nil {
			return err
		}
	}
	if req.ReviewDueDays != nil {
		if err := s.Set("spm_review_due_days", strconv.Itoa(*req.ReviewDueDays)); err != nil {
			return err
		}
	}
	if req.AutoArchiveDays != nil {
		if err := s.Set("auto_archive_days", strconv.Itoa(*req.AutoArchiveDays)); err != nil {
			return err
		}
	}
	return nil
}

type LDAPConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	BaseDN      string `json:"base_dn"`
	BindDN      string `json:"bind_dn"`
	UserFilter  string `json:"user_filter"`
	UseSSL      bool   `json:"use_ssl"`
	PasswordSet bool   `json:"password_set"`
}

func (s *SystemConfigService) GetLDAPConfig() *LDAPConfigResponse {
	return &LDAPConfigResponse{
		Enabled:     s.GetBool("ldap_enabled", false),
		Host:        s.GetWithDefault("ldap_host", ""),
		Port:        s.GetInt("ldap_port", 389),
		BaseDN:      s.GetWithDefault("ldap_base_dn", ""),
		BindDN:      s.GetWithDefault("ldap_bind_dn", ""),
		UserFilter:  s.GetWithDefault("ldap_user_filter", "(uid=%s)"),
		UseSSL:      s.GetBool("ldap_use_ssl", false),
		PasswordSet: s.GetWithDefault("ldap_bind_password", "") != "",
	}
}

type UpdateLDAPConfigRequest struct {
	Enabled      *bool   `json:"enabled"`
	Host         *string `json:"host"`
	Port         *int    `json:"port"`
	BaseDN       *string `json:"base_dn"`
	BindDN       *string `json:"bind_dn"`
	BindPassword *string `json:"bind_password"`
	UserFilter   *string `json:"user_filter"`
	UseSSL       *bool   `json:"use_ssl"`
}

func (s *SystemConfigService) UpdateLDAPConfig(req *UpdateLDAPConfigRequest) error {
	if req.Enabled != nil {
		if err := s.Set("ldap_enabled", strconv.FormatBool(*req.Enabled)); err != nil {
			return err
		}
	}
	if req.Host != nil {
		if err := s.Set("ldap_host", *req.Host); err != nil {
			return err
		}
	}
	if req.Port != nil {
		if err := s.Set("ldap_port", strconv.Itoa(*req.Port)); err != nil {
			return err
		}
	}
	if req.BaseDN != nil {
		if err := s.Set("ldap_base_dn", *req.BaseDN); err != nil {
			return err
		}
	}
	if req.BindDN != nil {
		if err := s.Set("ldap_bind_dn", *req.BindDN); err != nil {
			return err
		}
	}
	if req.BindPassword != nil && *req.BindPassword != "" {
		if err := s.Set("ldap_bind_password", *req.BindPassword); err != nil {
			return err
		}
	}
	if req.UserFilter != nil {
		if err := s.Set("ldap_user_filter", *req.UserFilter); err != nil {
			return err
		}
	}
	if req.UseSSL != nil {
		if err := s.Set("ldap_use_ssl", strconv.FormatBool(*req.UseSSL)); err != nil {
			return err
		}
	}
	return nil
}
