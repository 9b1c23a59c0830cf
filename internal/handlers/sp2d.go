package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SP2DHandler struct {
	sp2dService *services.SP2DService
}

func NewSP2DHandler(db *gorm.DB) *SP2DHandler {
	return &SP2DHandler{sp2dService: services.NewSP2DService(db)}
}

// List returns a page of disbursement orders
// GET /api/sp2d
func (h *SP2DHandler) List(c *gin.Context) {
	var req services.SP2DListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Parameter tidak valid")
		return
	}

	resp, err := h.sp2dService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Get returns one disbursement order
// GET /api/sp2d/:id
func (h *SP2DHandler) Get(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	sp2d, err := h.sp2dService.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sp2d)
}

// Issue creates the disbursement order for an approved payment order
// POST /api/sp2d
func (h *SP2DHandler) Issue(c *gin.Context) {
	var req services.IssueSP2DRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	sp2d, err := h.sp2dService.Issue(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sp2d)
}

// RequestOTP issues the step-up code for verification
// POST /api/sp2d/:id/request-otp
func (h *SP2DHandler) RequestOTP(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	result, err := h.sp2dService.RequestOTP(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Verify performs the OTP-gated verification step
// POST /api/sp2d/:id/verify
func (h *SP2DHandler) Verify(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	var req struct {
		OTPCode string `json:"otp_code"`
	}
	_ = c.ShouldBindJSON(&req)

	sp2d, err := h.sp2dService.Verify(middleware.GetUserID(c), id, req.OTPCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sp2d)
}

// Advance moves the order one step along the bank progression
// POST /api/sp2d/:id/advance
func (h *SP2DHandler) Advance(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	sp2d, err := h.sp2dService.Advance(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sp2d)
}
