package services

import (
	"fmt"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/utils"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// UserService is the administrator-facing account management layer.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	OPDID    *uint  `json:"opd_id"`
	AuthType string `json:"auth_type"`
	IsDemo   bool   `json:"is_demo"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	OPDID    *uint   `json:"opd_id"`
	IsActive *bool   `json:"is_active"`
}

type UserListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Role     string `form:"role"`
	Search   string `form:"search"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

func (s *UserService) Create(req *CreateUserRequest) (*models.User, error) {
	if req.Username == "" {
		return nil, response.NewBadRequest("Nama pengguna wajib diisi")
	}
	if !models.IsValidRole(req.Role) {
		return nil, response.NewBadRequest(fmt.Sprintf("Peran %q tidak dikenal", req.Role))
	}
	if req.Role == models.RoleOPD && req.OPDID == nil {
		return nil, response.NewBadRequest("Pengguna OPD harus terhubung ke satu OPD")
	}

	authType := req.AuthType
	if authType == "" {
		authType = "local"
	}
	if authType != "local" && authType != "ldap" {
		return nil, response.NewBadRequest("Jenis autentikasi harus local atau ldap")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("Nama pengguna sudah digunakan")
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		OPDID:    req.OPDID,
		AuthType: authType,
		IsActive: true,
		IsDemo:   req.IsDemo,
	}

	if authType == "local" {
		if len(req.Password) < 8 {
			return nil, response.NewBadRequest("Kata sandi minimal 8 karakter")
		}
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(userID uint, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil {
		if !models.IsValidRole(*req.Role) {
			return nil, response.NewBadRequest(fmt.Sprintf("Peran %q tidak dikenal", *req.Role))
		}
		updates["role"] = *req.Role
	}
	if req.OPDID != nil {
		updates["opd_id"] = *req.OPDID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// ResetPassword sets a new password for a local account without requiring
// the old one. Administrator action only; the route enforces the role.
func (s *UserService) ResetPassword(userID uint, newPassword string) error {
	if len(newPassword) < 8 {
		return response.NewBadRequest("Kata sandi minimal 8 karakter")
	}
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	if user.AuthType == "ldap" {
		return response.NewBadRequest("Kata sandi akun direktori dikelola oleh server direktori")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Update("password", hashed).Error; err != nil {
		return err
	}

	LogInfo("user", "reset_password", fmt.Sprintf("Kata sandi direset untuk %s", user.Username), &user.ID, "", "", nil)
	return nil
}

func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("OPD").First(&user, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("Pengguna tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		query = query.Where("username LIKE ? OR full_name LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var items []models.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("OPD").Offset(offset).Limit(req.PageSize).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

// Deactivate soft-disables the account. Users are never hard-deleted so
// the audit trail keeps resolving their ids.
func (s *UserService) Deactivate(userID uint) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("is_active", false).Error
}
