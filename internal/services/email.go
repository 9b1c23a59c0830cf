package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// EmailService sends transactional mail over SMTP using operator-supplied
// credentials stored in the system_configs "email" group.
type EmailService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db, configSvc: NewSystemConfigService(db)}
}

func (s *EmailService) GetConfig() *EmailConfig {
	return &EmailConfig{
		Enabled:  s.configSvc.GetBool("email_enabled", false),
		Host:     s.configSvc.GetWithDefault("email_host", ""),
		Port:     s.configSvc.GetInt("email_port", 587),
		Username: s.configSvc.GetWithDefault("email_username", ""),
		Password: s.configSvc.GetWithDefault("email_password", ""),
		From:     s.configSvc.GetWithDefault("email_from", ""),
		UseTLS:   s.configSvc.GetBool("email_use_tls", true),
	}
}

// Send delivers one HTML mail. Returns an error describing the first failed
// SMTP step; the caller records it as a channel outcome, never retries.
func (s *EmailService) Send(to, subject, body string) error {
	config := s.GetConfig()
	if !config.Enabled || config.Host == "" {
		return fmt.Errorf("config_not_found")
	}
	if to == "" {
		return fmt.Errorf("email_not_found")
	}
	return s.sendEmail(config, []string{to}, subject, body)
}

func (s *EmailService) sendEmail(config *EmailConfig, to []string, subject, body string) error {
	from := config.From
	if from == "" {
		from = config.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	var err error
	if config.UseTLS {
		err = s.sendEmailTLS(config, addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Warnf("[Email] Failed to send to %v: %v", to, err)
		return err
	}

	logger.Infof("[Email] Sent to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(config *EmailConfig, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
