package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmergencyHandler struct {
	emergencyService *services.EmergencyService
}

func NewEmergencyHandler(db *gorm.DB) *EmergencyHandler {
	return &EmergencyHandler{emergencyService: services.NewEmergencyService(db)}
}

// Status returns the current emergency-mode state
// GET /api/emergency
func (h *EmergencyHandler) Status(c *gin.Context) {
	response.Success(c, h.emergencyService.Status())
}

// Toggle activates or deactivates emergency mode
// POST /api/emergency/toggle
func (h *EmergencyHandler) Toggle(c *gin.Context) {
	var req struct {
		Enable bool   `json:"enable"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	status, err := h.emergencyService.Toggle(middleware.GetUserID(c), req.Enable, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}
