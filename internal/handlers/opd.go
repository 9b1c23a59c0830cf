package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OPDHandler struct {
	opdService *services.OPDService
}

func NewOPDHandler(db *gorm.DB) *OPDHandler {
	return &OPDHandler{opdService: services.NewOPDService(db)}
}

// List returns all spending units
// GET /api/opds
func (h *OPDHandler) List(c *gin.Context) {
	items, err := h.opdService.List(c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Get returns one spending unit
// GET /api/opds/:id
func (h *OPDHandler) Get(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	opd, err := h.opdService.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, opd)
}

// Create registers a new spending unit
// POST /api/opds
func (h *OPDHandler) Create(c *gin.Context) {
	var req services.OPDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	opd, err := h.opdService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, opd)
}

// Update edits a spending unit
// PUT /api/opds/:id
func (h *OPDHandler) Update(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	var req services.OPDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	opd, err := h.opdService.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, opd)
}

// Delete deactivates a spending unit
// DELETE /api/opds/:id
func (h *OPDHandler) Delete(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	if err := h.opdService.Deactivate(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "OPD dinonaktifkan"})
}
