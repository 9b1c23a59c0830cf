package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db               *gorm.DB
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db, dashboardService: services.NewDashboardService(db)}
}

// GetStats returns the treasury overview. OPD users see their own unit's
// figures; everyone else sees the whole pipeline.
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	var opdID uint
	if middleware.GetRole(c) == models.RoleOPD {
		var user models.User
		if err := h.db.First(&user, middleware.GetUserID(c)).Error; err == nil && user.OPDID != nil {
			opdID = *user.OPDID
		}
	}

	summary, err := h.dashboardService.Summary(opdID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}
