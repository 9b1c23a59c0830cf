package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/config"
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/utils"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// AuthService handles login (local password or directory bind), refresh
// token rotation and password changes. Refresh tokens are stored hashed;
// the plaintext exists only in the response to the client.
type AuthService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
	ldapSvc   *LDAPService
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		db:        db,
		configSvc: NewSystemConfigService(db),
		ldapSvc:   NewLDAPService(db),
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// Login authenticates the user and issues a JWT access token plus a
// rotating refresh token.
func (s *AuthService) Login(req *LoginRequest, ip, userAgent string) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, response.NewBadRequest("Nama pengguna dan kata sandi wajib diisi")
	}

	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return nil, response.NewUnauthorized("Nama pengguna atau kata sandi salah")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("Akun Anda dinonaktifkan")
	}

	if user.AuthType == "ldap" {
		if err := s.ldapSvc.Authenticate(user.Username, req.Password); err != nil {
			LogWarning("auth", "login_failed", fmt.Sprintf("Login direktori gagal untuk %s", user.Username), &user.ID, ip, userAgent, nil)
			return nil, response.NewUnauthorized("Nama pengguna atau kata sandi salah")
		}
	} else {
		if !utils.CheckPassword(req.Password, user.Password) {
			LogWarning("auth", "login_failed", fmt.Sprintf("Login gagal untuk %s", user.Username), &user.ID, ip, userAgent, nil)
			return nil, response.NewUnauthorized("Nama pengguna atau kata sandi salah")
		}
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	return s.issueTokens(&user, ip, userAgent)
}

// Refresh rotates a refresh token: the presented token is revoked and
// linked to its replacement, and a fresh access token is issued. A revoked
// or expired token never refreshes.
func (s *AuthService) Refresh(refreshToken, ip, userAgent string) (*LoginResponse, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("Refresh token wajib diisi")
	}

	var stored models.RefreshToken
	err := s.db.Where("token_hash = ?", hashToken(refreshToken)).First(&stored).Error
	if err != nil {
		return nil, response.NewUnauthorized("Refresh token tidak valid")
	}
	if stored.RevokedAt != nil {
		LogWarning("auth", "refresh_reuse", fmt.Sprintf("Refresh token yang sudah dicabut digunakan kembali (user %d)", stored.UserID), &stored.UserID, ip, userAgent, nil)
		return nil, response.NewUnauthorized("Refresh token sudah dicabut")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, response.NewUnauthorized("Refresh token sudah kedaluwarsa")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		return nil, response.NewUnauthorized("Pengguna tidak ditemukan")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("Akun Anda dinonaktifkan")
	}

	resp, err := s.issueTokens(&user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	var replacement models.RefreshToken
	if err := s.db.Where("token_hash = ?", hashToken(resp.RefreshToken)).First(&replacement).Error; err == nil {
		now := time.Now()
		s.db.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": replacement.ID,
		})
	}

	return resp, nil
}

// Logout revokes the presented refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}
	now := time.Now()
	s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashToken(refreshToken)).
		Update("revoked_at", now)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword verifies the old password and stores the new hash.
// Directory accounts manage their password in the directory, not here.
func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return response.NewBadRequest("Kata sandi baru minimal 8 karakter")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return response.NewUnauthorized("Pengguna tidak ditemukan")
	}
	if user.AuthType == "ldap" {
		return response.NewBadRequest("Kata sandi akun direktori dikelola oleh server direktori")
	}
	if user.IsDemo {
		return response.NewForbidden("Akun demo tidak dapat mengubah kata sandi")
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("Kata sandi lama salah")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("password", hashed).Error; err != nil {
		return err
	}

	LogInfo("auth", "change_password", fmt.Sprintf("Kata sandi diubah untuk %s", user.Username), &user.ID, "", "", nil)
	return nil
}

func (s *AuthService) issueTokens(user *models.User, ip, userAgent string) (*LoginResponse, error) {
	expireHours := s.configSvc.GetInt("auth_access_token_expire_hours", defaultTokenExpiryHours())
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, expireHours)
	if err != nil {
		return nil, err
	}

	refreshPlain, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshHours := s.configSvc.GetInt("auth_refresh_token_expire_hours", 720)
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   hashToken(refreshPlain),
		ExpiresAt:   time.Now().Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: ip,
		UserAgent:   userAgent,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:        token,
		RefreshToken: refreshPlain,
		ExpiresAt:    time.Now().Add(time.Duration(expireHours) * time.Hour),
		User:         user,
	}, nil
}

// CleanupExpiredTokens deletes refresh tokens long past expiry. Called by
// the scheduler.
func (s *AuthService) CleanupExpiredTokens() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now().AddDate(0, 0, -7)).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func defaultTokenExpiryHours() int {
	if config.GlobalConfig != nil && config.GlobalConfig.JWT.ExpireHour > 0 {
		return config.GlobalConfig.JWT.ExpireHour
	}
	return 24
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateAdminIfNotExists seeds the first administrator account so a fresh
// install is reachable. The default credential must be rotated immediately.
func CreateAdminIfNotExists(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdministrator).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hashed,
		FullName: "Administrator",
		Role:     models.RoleAdministrator,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Warnf("[Auth] Default administrator created (username: admin) - change the password immediately")
	return nil
}
