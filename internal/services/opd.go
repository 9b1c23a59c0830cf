package services

import (
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"gorm.io/gorm"
)

// OPDService manages the spending-unit master data.
type OPDService struct {
	db *gorm.DB
}

func NewOPDService(db *gorm.DB) *OPDService {
	return &OPDService{db: db}
}

type OPDRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	HeadName string `json:"head_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func (s *OPDService) Create(req *OPDRequest) (*models.OPD, error) {
	if req.Code == "" {
		return nil, response.NewBadRequest("Kode OPD wajib diisi")
	}
	if req.Name == "" {
		return nil, response.NewBadRequest("Nama OPD wajib diisi")
	}

	var count int64
	s.db.Model(&models.OPD{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("Kode OPD sudah digunakan")
	}

	opd := &models.OPD{
		Code:     req.Code,
		Name:     req.Name,
		HeadName: req.HeadName,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if err := s.db.Create(opd).Error; err != nil {
		return nil, err
	}
	return opd, nil
}

func (s *OPDService) Update(opdID uint, req *OPDRequest) (*models.OPD, error) {
	opd, err := s.Get(opdID)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, response.NewBadRequest("Nama OPD wajib diisi")
	}

	updates := map[string]interface{}{
		"name":      req.Name,
		"head_name": req.HeadName,
		"address":   req.Address,
		"phone":     req.Phone,
		"email":     req.Email,
	}
	if req.Code != "" && req.Code != opd.Code {
		var count int64
		s.db.Model(&models.OPD{}).Where("code = ? AND id <> ?", req.Code, opdID).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("Kode OPD sudah digunakan")
		}
		updates["code"] = req.Code
	}

	if err := s.db.Model(opd).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(opdID)
}

func (s *OPDService) Get(opdID uint) (*models.OPD, error) {
	var opd models.OPD
	err := s.db.First(&opd, opdID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("OPD tidak ditemukan")
	}
	if err != nil {
		return nil, err
	}
	return &opd, nil
}

func (s *OPDService) List(search string) ([]models.OPD, error) {
	query := s.db.Model(&models.OPD{})
	if search != "" {
		query = query.Where("code LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var items []models.OPD
	if err := query.Order("code").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Deactivate soft-disables the unit. Units with documents are never
// hard-deleted.
func (s *OPDService) Deactivate(opdID uint) error {
	opd, err := s.Get(opdID)
	if err != nil {
		return err
	}
	return s.db.Model(opd).Update("is_active", false).Error
}
