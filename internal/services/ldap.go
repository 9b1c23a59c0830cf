package services

import (
	"crypto/tls"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// LDAPService authenticates users against the regional government
// directory. Connection settings live in the system_configs "ldap" group;
// users with auth_type "ldap" have no local password hash.
type LDAPService struct {
	configSvc *SystemConfigService
}

func NewLDAPService(db *gorm.DB) *LDAPService {
	return &LDAPService{configSvc: NewSystemConfigService(db)}
}

type ldapSettings struct {
	Enabled      bool
	Host         string
	Port         int
	BaseDN       string
	BindDN       string
	BindPassword string
	UserFilter   string
	UseSSL       bool
}

func (s *LDAPService) settings() *ldapSettings {
	return &ldapSettings{
		Enabled:      s.configSvc.GetBool("ldap_enabled", false),
		Host:         s.configSvc.GetWithDefault("ldap_host", ""),
		Port:         s.configSvc.GetInt("ldap_port", 389),
		BaseDN:       s.configSvc.GetWithDefault("ldap_base_dn", ""),
		BindDN:       s.configSvc.GetWithDefault("ldap_bind_dn", ""),
		BindPassword: s.configSvc.GetWithDefault("ldap_bind_password", ""),
		UserFilter:   s.configSvc.GetWithDefault("ldap_user_filter", "(uid=%s)"),
		UseSSL:       s.configSvc.GetBool("ldap_use_ssl", false),
	}
}

// Enabled reports whether directory authentication is configured.
func (s *LDAPService) Enabled() bool {
	cfg := s.settings()
	return cfg.Enabled && cfg.Host != ""
}

// Authenticate verifies username/password against the directory: service
// bind, user search, then a bind as the found entry.
func (s *LDAPService) Authenticate(username, password string) error {
	cfg := s.settings()
	if !cfg.Enabled || cfg.Host == "" {
		return fmt.Errorf("autentikasi direktori tidak diaktifkan")
	}

	conn, err := s.dial(cfg)
	if err != nil {
		logger.Warnf("[LDAP] Connection to %s:%d failed: %v", cfg.Host, cfg.Port, err)
		return fmt.Errorf("tidak dapat terhubung ke server direktori")
	}
	defer conn.Close()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			logger.Warnf("[LDAP] Service bind failed: %v", err)
			return fmt.Errorf("konfigurasi direktori tidak valid")
		}
	}

	searchReq := ldap.NewSearchRequest(
		cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 10, false,
		fmt.Sprintf(cfg.UserFilter, ldap.EscapeFilter(username)),
		[]string{"dn"},
		nil,
	)

	result, err := conn.Search(searchReq)
	if err != nil || len(result.Entries) == 0 {
		return fmt.Errorf("nama pengguna atau kata sandi salah")
	}

	if err := conn.Bind(result.Entries[0].DN, password); err != nil {
		return fmt.Errorf("nama pengguna atau kata sandi salah")
	}
	return nil
}

func (s *LDAPService) dial(cfg *ldapSettings) (*ldap.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if cfg.UseSSL {
		return ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: cfg.Host}))
	}
	return ldap.DialURL("ldap://" + addr)
}
