package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/bkadkota/simpa-bend/backend/internal/models"
	"github.com/bkadkota/simpa-bend/backend/pkg/logger"
	"gorm.io/gorm"
)

// Delivery channels.
const (
	ChannelInApp    = "inapp"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Delivery statuses.
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliverySkipped   = "skipped"
)

// DeliveryResult is the tagged outcome of one independent delivery attempt.
// No channel is retried; the caller is free to add retry without changing
// this abstraction.
type DeliveryResult struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// Outcome flattens a DeliveryResult into the legacy per-channel outcome
// string: "success", "config_not_found", "email_not_found",
// "phone_not_found", or the failure reason.
func (r DeliveryResult) Outcome() string {
	if r.Status == DeliveryDelivered {
		return "success"
	}
	return r.Reason
}

// NotificationEvent is one transactional message addressed to a single user.
type NotificationEvent struct {
	UserID   uint   `json:"user_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"` // approval, revision, rejection, otp, disbursement, emergency
	RefType  string `json:"ref_type,omitempty"`
	RefID    *uint  `json:"ref_id,omitempty"`

	// SkipInApp suppresses the in-app row (used for OTP codes, which must
	// not be readable from the notification list).
	SkipInApp bool `json:"skip_in_app,omitempty"`
}

// NotificationService fans one event out over the in-app, email and
// WhatsApp channels. Channels are fully independent: a failure in one never
// blocks the others, and nothing is retried.
type NotificationService struct {
	db       *gorm.DB
	emailSvc *EmailService
	waSvc    *WhatsAppService
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:       db,
		emailSvc: NewEmailService(db),
		waSvc:    NewWhatsAppService(db),
	}
}

// Dispatch delivers the event over every channel and returns one tagged
// result per channel. Errors are folded into the results, never returned.
func (s *NotificationService) Dispatch(event *NotificationEvent) []DeliveryResult {
	var user models.User
	if err := s.db.First(&user, event.UserID).Error; err != nil {
		logger.Warnf("[Notification] User %d not found: %v", event.UserID, err)
		reason := "user_not_found"
		return []DeliveryResult{
			{Channel: ChannelInApp, Status: DeliveryFailed, Reason: reason},
			{Channel: ChannelEmail, Status: DeliveryFailed, Reason: reason},
			{Channel: ChannelWhatsApp, Status: DeliveryFailed, Reason: reason},
		}
	}

	results := make([]DeliveryResult, 0, 3)

	if !event.SkipInApp {
		results = append(results, s.deliverInApp(event))
	}
	results = append(results, s.deliverEmail(&user, event))
	results = append(results, s.deliverWhatsApp(&user, event))

	for _, r := range results {
		if r.Status == DeliveryFailed {
			logger.Warnf("[Notification] %s delivery failed for user %d: %s", r.Channel, event.UserID, r.Reason)
		}
	}

	return results
}

// DispatchToRoles fans the event out to every active user holding one of
// the given roles. Used by the emergency-mode toggle to alert all
// administrators and oversight roles.
func (s *NotificationService) DispatchToRoles(roles []string, event *NotificationEvent) map[uint][]DeliveryResult {
	var users []models.User
	if err := s.db.Where("role IN ? AND is_active = ?", roles, true).Find(&users).Error; err != nil {
		logger.Errorf("[Notification] Role fan-out query failed: %v", err)
		return nil
	}

	outcomes := make(map[uint][]DeliveryResult, len(users))
	for _, u := range users {
		ev := *event
		ev.UserID = u.ID
		outcomes[u.ID] = s.Dispatch(&ev)
	}
	return outcomes
}

func (s *NotificationService) deliverInApp(event *NotificationEvent) DeliveryResult {
	row := models.Notification{
		UserID:    event.UserID,
		Title:     event.Title,
		Body:      event.Body,
		Category:  event.Category,
		RefType:   event.RefType,
		RefID:     event.RefID,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return DeliveryResult{Channel: ChannelInApp, Status: DeliveryFailed, Reason: err.Error()}
	}
	return DeliveryResult{Channel: ChannelInApp, Status: DeliveryDelivered}
}

func (s *NotificationService) deliverEmail(user *models.User, event *NotificationEvent) DeliveryResult {
	if user.Email == "" {
		return DeliveryResult{Channel: ChannelEmail, Status: DeliverySkipped, Reason: "email_not_found"}
	}

	err := s.emailSvc.Send(user.Email, "[SIMPA BEND] "+event.Title, buildEmailBody(user.FullName, event))
	if err != nil {
		status := DeliveryFailed
		if err.Error() == "config_not_found" {
			status = DeliverySkipped
		}
		return DeliveryResult{Channel: ChannelEmail, Status: status, Reason: err.Error()}
	}
	return DeliveryResult{Channel: ChannelEmail, Status: DeliveryDelivered}
}

func (s *NotificationService) deliverWhatsApp(user *models.User, event *NotificationEvent) DeliveryResult {
	if user.Phone == "" {
		return DeliveryResult{Channel: ChannelWhatsApp, Status: DeliverySkipped, Reason: "phone_not_found"}
	}

	msg := fmt.Sprintf("*%s*\n\n%s", event.Title, event.Body)
	err := s.waSvc.Send(user.Phone, msg)
	if err != nil {
		status := DeliveryFailed
		if err.Error() == "config_not_found" {
			status = DeliverySkipped
		}
		return DeliveryResult{Channel: ChannelWhatsApp, Status: status, Reason: err.Error()}
	}
	return DeliveryResult{Channel: ChannelWhatsApp, Status: DeliveryDelivered}
}

type NotificationListRequest struct {
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
	Category   string `form:"category"`
	UnreadOnly bool   `form:"unread_only"`
}

type NotificationListResponse struct {
	Total    int64                 `json:"total"`
	Unread   int64                 `json:"unread"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Items    []models.Notification `json:"items"`
}

// List returns one user's in-app notifications, newest first.
func (s *NotificationService) List(userID uint, req *NotificationListRequest) (*NotificationListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	query.Count(&total)

	var unread int64
	s.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	var items []models.Notification
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	return &NotificationListResponse{Total: total, Unread: unread, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

// MarkRead flags one notification as read. Scoped to the owner.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

// MarkAllRead flags all of one user's notifications as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func buildEmailBody(recipientName string, event *NotificationEvent) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", event.Title))
	if recipientName != "" {
		sb.WriteString(fmt.Sprintf("<p>Yth. %s,</p>", recipientName))
	}
	sb.WriteString(fmt.Sprintf("<div style=\"background: #f9f9f9; padding: 16px; border-radius: 4px; white-space: pre-wrap;\">%s</div>", event.Body))
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">SIMPA BEND &mdash; Badan Keuangan dan Aset Daerah</p>")
	sb.WriteString("</body></html>")

	return sb.String()
}
