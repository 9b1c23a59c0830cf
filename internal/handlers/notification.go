package handlers

import (
	"github.com/bkadkota/simpa-bend/backend/internal/middleware"
	"github.com/bkadkota/simpa-bend/backend/internal/services"
	"github.com/bkadkota/simpa-bend/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	notifService *services.NotificationService
	emailService *services.EmailService
	waService    *services.WhatsAppService
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{
		notifService: services.NewNotificationService(db),
		emailService: services.NewEmailService(db),
		waService:    services.NewWhatsAppService(db),
	}
}

// List returns the current user's in-app notifications
// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req services.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Parameter tidak valid")
		return
	}

	resp, err := h.notifService.List(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// MarkRead flags one notification as read
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		response.BadRequest(c, "ID tidak valid")
		return
	}

	if err := h.notifService.MarkRead(middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Notifikasi ditandai dibaca"})
}

// MarkAllRead flags all of the user's notifications as read
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifService.MarkAllRead(middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Semua notifikasi ditandai dibaca"})
}

// TestEmail sends a probe mail with the stored SMTP settings
// POST /api/notifications/test-email
func (h *NotificationHandler) TestEmail(c *gin.Context) {
	var req struct {
		To string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" {
		response.BadRequest(c, "Alamat email tujuan wajib diisi")
		return
	}

	err := h.emailService.Send(req.To, "[SIMPA BEND] Uji Konfigurasi Email",
		"<p>Email ini dikirim untuk menguji konfigurasi SMTP SIMPA BEND.</p>")
	if err != nil {
		response.BadRequest(c, "Pengiriman email gagal: "+err.Error())
		return
	}
	response.Success(c, gin.H{"message": "Email uji berhasil dikirim"})
}

// TestWhatsApp sends a probe message with the stored gateway settings
// POST /api/notifications/test-whatsapp
func (h *NotificationHandler) TestWhatsApp(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		response.BadRequest(c, "Nomor telepon tujuan wajib diisi")
		return
	}

	if err := h.waService.Send(req.Phone, "Pesan ini dikirim untuk menguji konfigurasi WhatsApp SIMPA BEND."); err != nil {
		response.BadRequest(c, "Pengiriman WhatsApp gagal: "+err.Error())
		return
	}
	response.Success(c, gin.H{"message": "Pesan WhatsApp uji berhasil dikirim"})
}
