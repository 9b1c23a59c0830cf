package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{configService: services.NewSystemConfigService(db)}
}

// GetGeneral returns the general settings group
// GET /api/system-configs/general
func (h *SystemConfigHandler) GetGeneral(c *gin.Context) {
	response.Success(c, h.configService.GetGeneralConfig())
}

// UpdateGeneral updates the general settings group
// PUT /api/system-configs/general
func (h *SystemConfigHandler) UpdateGeneral(c *gin.Context) {
	var req services.UpdateGeneralConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}
	if req.TargetSPMBulanan != nil && *req.TargetSPMBulanan < 0 {
		response.BadRequest(c, "Target SPM bulanan tidak boleh negatif")
		return
	}
	if req.ReviewDueDays != nil && *req.ReviewDueDays < 1 {
		response.BadRequest(c, "Batas hari tinjauan minimal 1 hari kerja")
		return
	}
	if req.AutoArchiveDays != nil && *req.AutoArchiveDays < 0 {
		response.BadRequest(c, "Ambang arsip otomatis tidak boleh negatif")
		return
	}

	if err := h.configService.UpdateGeneralConfig(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.configService.GetGeneralConfig())
}

// GetEmail returns the SMTP settings (password omitted)
// GET /api/system-configs/email
func (h *SystemConfigHandler) GetEmail(c *gin.Context) {
	response.Success(c, h.configService.GetEmailConfig())
}

// UpdateEmail updates the SMTP settings
// PUT /api/system-configs/email
func (h *SystemConfigHandler) UpdateEmail(c *gin.Context) {
	var req services.UpdateEmailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	if err := h.configService.UpdateEmailConfig(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.configService.GetEmailConfig())
}

// GetWhatsApp returns the gateway settings (API key omitted)
// GET /api/system-configs/whatsapp
func (h *SystemConfigHandler) GetWhatsApp(c *gin.Context) {
	response.Success(c, h.configService.GetWhatsAppConfig())
}

// UpdateWhatsApp updates the gateway settings
// PUT /api/system-configs/whatsapp
func (h *SystemConfigHandler) UpdateWhatsApp(c *gin.Context) {
	var req services.UpdateWhatsAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	if err := h.configService.UpdateWhatsAppConfig(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.configService.GetWhatsAppConfig())
}

// GetLDAP returns the directory settings (bind password omitted)
// GET /api/system-configs/ldap
func (h *SystemConfigHandler) GetLDAP(c *gin.Context) {
	response.Success(c, h.configService.GetLDAPConfig())
}

// UpdateLDAP updates the directory settings
// PUT /api/system-configs/ldap
func (h *SystemConfigHandler) UpdateLDAP(c *gin.Context) {
	var req services.UpdateLDAPConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	if err := h.configService.UpdateLDAPConfig(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.configService.GetLDAPConfig())
}
