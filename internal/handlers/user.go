package handlers

import (
	"strconv"

	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// List returns a page of users
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Parameter tidak valid")
		return
	}

	resp, err := h.userService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Get returns one user
// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Create registers a new account
// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	user, err := h.userService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update edits an account
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	user, err := h.userService.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ResetPassword sets a new password for a local account
// POST /api/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Format permintaan tidak valid")
		return
	}

	if err := h.userService.ResetPassword(id, req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Kata sandi berhasil direset"})
}

// Delete deactivates an account
// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	if err := h.userService.Deactivate(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Pengguna dinonaktifkan"})
}

// parseID reads the :id route parameter.
func parseID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
