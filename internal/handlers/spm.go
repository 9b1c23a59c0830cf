package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SPMHandler struct {
	db          *gorm.DB
	workflowSvc *services.WorkflowService
}

func NewSPMHandler(db *gorm.DB) *SPMHandler {
	return &SPMHandler{db: db, workflowSvc: services.NewWorkflowService(db)}
}

// List returns a page of payment orders. OPD users are hard-scoped to
// their own unit regardless of the query parameter.
// GET /api/spm
func (h *SPMHandler) List(c *gin.Context) {
	var req services.SPMListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Parameter tidak valid")
		return
	}

	if middleware.GetRole(c) == models.RoleOPD {
		var user models.User
		if err := h.db.First(&user, middleware.GetUserID(c)).Error; err != nil || user.OPDID == nil {
			response.Forbidden(c, "Pengguna tidak terhubung ke OPD manapun")
			return
		}
		req.OPDID = *user.OPDID
	}

	resp, err := h.workflowSvc.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Get returns one payment order
// GET /api/spm/:id
func (h *SPMHandler) Get(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	spm, err := h.workflowSvc.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if middleware.GetRole(c) == models.RoleOPD {
		var user models.User
		if err := h.db.First(&user, middleware.GetUserID(c)).Error; err != nil || user.OPDID == nil || *user.OPDID != spm.OPDID {
			response.Forbidden(c, "SPM ini bukan milik OPD Anda")
			return
		}
	}

	response.Success(c, spm)
}

// Create registers a new draft
// POST /api/spm
func (h *SPMHandler) Create(c *gin.Context) {
	var req services.CreateSPMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	spm, err := h.workflowSvc.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, spm)
}

// Update edits a draft or a document returned for revision
// PUT /api/spm/:id
func (h *SPMHandler) Update(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	var req services.UpdateSPMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	spm, err := h.workflowSvc.Update(middleware.GetUserID(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, spm)
}

// Submit moves a draft into the review chain
// POST /api/spm/:id/submit
func (h *SPMHandler) Submit(c *gin.Context) {
	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.Submit(actorID, spmID)
	})
}

// Advance performs the current stage's verification step
// POST /api/spm/:id/advance
func (h *SPMHandler) Advance(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.Advance(actorID, spmID, req.Note)
	})
}

// RequestOTP issues the step-up code for final approval
// POST /api/spm/:id/request-otp
func (h *SPMHandler) RequestOTP(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	result, err := h.workflowSvc.RequestOTP(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Approve completes the review chain (OTP-gated outside emergency mode)
// POST /api/spm/:id/approve
func (h *SPMHandler) Approve(c *gin.Context) {
	var req struct {
		OTPCode string `json:"otp_code"`
		Note    string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.Approve(actorID, spmID, req.OTPCode, req.Note)
	})
}

// RequestRevision returns the document to its submitter
// POST /api/spm/:id/request-revision
func (h *SPMHandler) RequestRevision(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.RequestRevision(actorID, spmID, req.Note)
	})
}

// Reject terminates the document
// POST /api/spm/:id/reject
func (h *SPMHandler) Reject(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.Reject(actorID, spmID, req.Note)
	})
}

// Resubmit puts a revised document back into the chain
// POST /api/spm/:id/resubmit
func (h *SPMHandler) Resubmit(c *gin.Context) {
	h.runTransition(c, func(actorID, spmID uint) (*models.SPM, error) {
		return h.workflowSvc.Resubmit(actorID, spmID)
	})
}

func (h *SPMHandler) runTransition(c *gin.Context, fn func(actorID, spmID uint) (*models.SPM, error)) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	spm, err := fn(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, spm)
}
