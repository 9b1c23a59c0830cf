package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ArchiveHandler struct {
	archiveService *services.ArchiveService
}

func NewArchiveHandler(db *gorm.DB) *ArchiveHandler {
	return &ArchiveHandler{archiveService: services.NewArchiveService(db)}
}

// List returns a page of archived documents
// GET /api/archives
func (h *ArchiveHandler) List(c *gin.Context) {
	var req services.ArchiveListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Parameter tidak valid")
		return
	}

	resp, err := h.archiveService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Run triggers a sweep outside the nightly schedule
// POST /api/archives/run
func (h *ArchiveHandler) Run(c *gin.Context) {
	result, err := h.archiveService.Sweep()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
