package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// WhatsAppService talks to a Fonnte-compatible WhatsApp gateway:
// POST {base_url}/send with Authorization: <api_key> and a JSON body
// {target, message, countryCode}. Configuration lives in the
// system_configs "whatsapp" group.
type WhatsAppService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
	client    *http.Client

	// baseURL overrides the configured gateway URL when non-empty (tests).
	baseURL string
}

type WhatsAppConfig struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	CountryCode string
}

func NewWhatsAppService(db *gorm.DB) *WhatsAppService {
	return &WhatsAppService{
		db:        db,
		configSvc: NewSystemConfigService(db),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WhatsAppService) GetConfig() *WhatsAppConfig {
	cfg := &WhatsAppConfig{
		Enabled:     s.configSvc.GetBool("wa_enabled", false),
		BaseURL:     s.configSvc.GetWithDefault("wa_base_url", "https://api.fonnte.com"),
		APIKey:      s.configSvc.GetWithDefault("wa_api_key", ""),
		CountryCode: s.configSvc.GetWithDefault("wa_country_code", "62"),
	}
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	return cfg
}

type waSendRequest struct {
	Target      string `json:"target"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode,omitempty"`
}

// Send delivers one message to a phone number. Returns an error describing
// the failure; the caller records it as a channel outcome, never retries.
func (s *WhatsAppService) Send(target, message string) error {
	config := s.GetConfig()
	if !config.Enabled || config.APIKey == "" {
		return fmt.Errorf("config_not_found")
	}
	if target == "" {
		return fmt.Errorf("phone_not_found")
	}

	payload := waSendRequest{
		Target:      normalizePhone(target, config.CountryCode),
		Message:     message,
		CountryCode: config.CountryCode,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(config.BaseURL, "/") + "/send"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 {
		logger.Warnf("[WhatsApp] Gateway returned %d: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	logger.Infof("[WhatsApp] Sent to %s", payload.Target)
	return nil
}

// normalizePhone rewrites a local "08xx" number to international form using
// the configured country code.
func normalizePhone(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		return countryCode + phone[1:]
	}
	return phone
}
